package registry

import (
	"sort"
	"strings"
)

// Registry: неизменяемая карта role -> таблицы/метрики.
// Для перезагрузки строится новый экземпляр.
type Registry struct {
	roles map[string]RoleSpec
}

func New(specs ...RoleSpec) *Registry {
	r := &Registry{roles: make(map[string]RoleSpec, len(specs))}
	for _, s := range specs {
		key := NormalizeRole(s.Role)
		if key == "" {
			continue
		}
		s.Role = key
		r.roles[key] = cloneSpec(s)
	}
	return r
}

// Roles возвращает отсортированный список ролей
func (r *Registry) Roles() []string {
	out := make([]string, 0, len(r.roles))
	for k := range r.roles {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Spec отдаёт копию описания роли
func (r *Registry) Spec(role string) (RoleSpec, bool) {
	s, ok := r.roles[NormalizeRole(role)]
	if !ok {
		return RoleSpec{}, false
	}
	return cloneSpec(s), true
}

// Tables: чистый lookup role -> упорядоченный список таблиц.
// Неизвестная роль даёт пустой список.
func (r *Registry) Tables(role string) []TableDescriptor {
	s, ok := r.roles[NormalizeRole(role)]
	if !ok {
		return nil
	}
	return cloneTables(s.Tables)
}

func (r *Registry) Table(role, endpoint string) (TableDescriptor, bool) {
	s, ok := r.roles[NormalizeRole(role)]
	if !ok {
		return TableDescriptor{}, false
	}
	ep := strings.Trim(strings.TrimSpace(endpoint), "/")
	for _, t := range s.Tables {
		if t.Endpoint == ep {
			return cloneTable(t), true
		}
	}
	return TableDescriptor{}, false
}

func (r *Registry) Metrics(role string) []MetricDescriptor {
	s, ok := r.roles[NormalizeRole(role)]
	if !ok {
		return nil
	}
	return append([]MetricDescriptor(nil), s.Metrics...)
}

// RouteFor: сначала маршрут из описания роли, потом общая таблица
func (r *Registry) RouteFor(role string) string {
	key := NormalizeRole(role)
	if s, ok := r.roles[key]; ok && s.Route != "" {
		return s.Route
	}
	return RouteFor(key)
}

// Merge накладывает override поверх базового реестра (роль целиком).
func (r *Registry) Merge(overrides map[string]RoleSpec) *Registry {
	specs := make([]RoleSpec, 0, len(r.roles)+len(overrides))
	for k, s := range r.roles {
		if _, replaced := overrides[k]; replaced {
			continue
		}
		specs = append(specs, s)
	}
	for _, s := range overrides {
		specs = append(specs, s)
	}
	return New(specs...)
}

func cloneSpec(s RoleSpec) RoleSpec {
	s.Tables = cloneTables(s.Tables)
	s.Metrics = append([]MetricDescriptor(nil), s.Metrics...)
	return s
}

func cloneTables(in []TableDescriptor) []TableDescriptor {
	out := make([]TableDescriptor, 0, len(in))
	for _, t := range in {
		out = append(out, cloneTable(t))
	}
	return out
}

func cloneTable(t TableDescriptor) TableDescriptor {
	t.Columns = append([]string(nil), t.Columns...)
	return t
}
