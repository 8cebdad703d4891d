package registry

import "strings"

// единая таблица role -> сегмент маршрута
var routes = map[string]string{
	"admin":      "/admin",
	"clerk":      "/clerk",
	"engineer":   "/engineer",
	"leader":     "/team-leader",
	"qi":         "/quality-inspector",
	"vendor":     "/vendor",
	"supervisor": "/supervisor",
}

// серверные имена ролей -> канонические ключи
var roleAliases = map[string]string{
	"administrator":      "admin",
	"super_admin":        "admin",
	"superadmin":         "admin",
	"team_leader":        "leader",
	"teamleader":         "leader",
	"team_lead":          "leader",
	"quality_inspector":  "qi",
	"qualityinspector":   "qi",
	"quality_inspection": "qi",
	"inspector":          "qi",
	"site_engineer":      "engineer",
	"site_supervisor":    "supervisor",
	"contractor":         "vendor",
}

// NormalizeRole приводит "Team Leader", "QI", "quality-inspector" к ключу реестра.
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	r = strings.NewReplacer(" ", "_", "-", "_").Replace(r)
	if a, ok := roleAliases[r]; ok {
		return a
	}
	return r
}

// RouteFor: маршрут по общей таблице; неизвестная роль -> "/"
func RouteFor(role string) string {
	if r, ok := routes[NormalizeRole(role)]; ok {
		return r
	}
	return "/"
}
