package devbackend

import "portal/internal/registry"

// DefaultUsers: по пользователю на роль, пароль "password"
func DefaultUsers() []User {
	reg := registry.Builtin()
	out := make([]User, 0, len(reg.Roles()))
	for _, role := range reg.Roles() {
		out = append(out, User{
			Username: role,
			Password: "password",
			UserType: role,
			Email:    role + "@portal.local",
		})
	}
	return out
}

// DefaultAggregates: заглушки для всех метрик встроенного реестра
func DefaultAggregates() map[string]any {
	out := map[string]any{
		"dashboard/summary": map[string]any{
			"total_projects":     12,
			"active_projects":    9,
			"open_work_orders":   34,
			"closed_work_orders": 120,
			"vendors":            18,
		},
		"dashboard/work-order-status": map[string]any{
			"labels": []string{"open", "in_progress", "closed"},
			"values": []int{14, 20, 120},
		},
		"dashboard/vendor-performance": []map[string]any{
			{"vendor": "Acme Build", "value": 92.5, "weight": 3},
			{"vendor": "Northwind", "value": 78, "weight": 1},
		},
		"dashboard/invoice-totals": map[string]any{
			"labels": []string{"paid", "unpaid"},
			"values": []float64{125000.5, 40200},
		},
		"dashboard/project-progress": []map[string]any{
			{"project": "Tower A", "value": 64},
			{"project": "Bridge", "value": 31},
		},
		"dashboard/team-productivity": []map[string]any{
			{"member": "alice", "value": 0.92, "weight": 40},
			{"member": "bob", "value": 0.75, "weight": 32},
		},
		"dashboard/kpi": map[string]any{
			"value":  87,
			"target": 90,
		},
		"dashboard/inspection-pass-rate": map[string]any{
			"labels": []string{"Jan", "Feb", "Mar"},
			"values": []float64{0.91, 0.88, 0.95},
		},
		"dashboard/vendor-earnings": map[string]any{
			"labels": []string{"Q1", "Q2"},
			"values": []float64{52000, 61000},
		},
		"dashboard/attendance": map[string]any{
			"labels": []string{"Mon", "Tue", "Wed"},
			"values": []int{41, 44, 39},
		},
	}
	return out
}
