package registry

// TableDescriptor описывает одну таблицу в меню роли
type TableDescriptor struct {
	Endpoint string   `yaml:"endpoint" json:"endpoint"`
	Label    string   `yaml:"label" json:"label"`
	Columns  []string `yaml:"columns" json:"columns"` // порядок важен: колонки таблицы и поля формы
	IDField  string   `yaml:"id_field,omitempty" json:"idField,omitempty"`
}

// MetricDescriptor: один агрегат дашборда
type MetricDescriptor struct {
	Name     string `yaml:"name" json:"name"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	Label    string `yaml:"label" json:"label"`
}

// RoleSpec: всё, что известно о роли
type RoleSpec struct {
	Role    string             `yaml:"role" json:"role"`
	Route   string             `yaml:"route,omitempty" json:"route,omitempty"`
	Tables  []TableDescriptor  `yaml:"tables" json:"tables"`
	Metrics []MetricDescriptor `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// IDCandidates: старый порядок угадывания первичного ключа,
// используется только если у таблицы не задан id_field.
var IDCandidates = []string{
	"id",
	"user_id",
	"vendor_id",
	"project_id",
	"work_order_id",
	"inspection_id",
	"engineer_id",
	"clerk_id",
	"leader_id",
	"supervisor_id",
}
