package registry

var workOrders = TableDescriptor{
	Endpoint: "work-orders",
	Label:    "Work Orders",
	Columns:  []string{"project", "vendor", "description", "status", "due_date", "is_closed"},
	IDField:  "id",
}

// Builtin: реестр по умолчанию; файлы из registryDir накладываются поверх.
func Builtin() *Registry {
	return New(
		RoleSpec{
			Role: "admin",
			Tables: []TableDescriptor{
				{Endpoint: "users", Label: "Users", Columns: []string{"username", "email", "user_type", "is_active"}},
				{Endpoint: "projects", Label: "Projects", Columns: []string{"name", "location", "start_date", "end_date", "is_active"}},
				{Endpoint: "vendors", Label: "Vendors", Columns: []string{"name", "contact_person", "phone", "email", "is_approved"}},
				workOrders,
			},
			Metrics: []MetricDescriptor{
				{Name: "summary", Endpoint: "dashboard/summary", Label: "Summary"},
				{Name: "work_order_status", Endpoint: "dashboard/work-order-status", Label: "Work order status"},
				{Name: "vendor_performance", Endpoint: "dashboard/vendor-performance", Label: "Vendor performance"},
			},
		},
		RoleSpec{
			Role: "clerk",
			Tables: []TableDescriptor{
				workOrders,
				{Endpoint: "documents", Label: "Documents", Columns: []string{"title", "project", "document_type", "uploaded_at"}},
				{Endpoint: "invoices", Label: "Invoices", Columns: []string{"vendor", "project", "amount", "due_date", "is_paid"}},
			},
			Metrics: []MetricDescriptor{
				{Name: "summary", Endpoint: "dashboard/summary", Label: "Summary"},
				{Name: "invoice_totals", Endpoint: "dashboard/invoice-totals", Label: "Invoice totals"},
			},
		},
		RoleSpec{
			Role: "engineer",
			Tables: []TableDescriptor{
				{Endpoint: "site-reports", Label: "Site Reports", Columns: []string{"project", "report_date", "progress_percent", "remarks"}},
				workOrders,
				{Endpoint: "material-requests", Label: "Material Requests", Columns: []string{"project", "material", "quantity", "is_approved"}},
			},
			Metrics: []MetricDescriptor{
				{Name: "progress", Endpoint: "dashboard/project-progress", Label: "Project progress"},
			},
		},
		RoleSpec{
			Role: "leader",
			Tables: []TableDescriptor{
				{Endpoint: "team-members", Label: "Team Members", Columns: []string{"user", "role", "productivity", "is_active"}},
				{Endpoint: "tasks", Label: "Tasks", Columns: []string{"project", "title", "assigned_to", "due_date", "is_done"}},
			},
			Metrics: []MetricDescriptor{
				{Name: "productivity", Endpoint: "dashboard/team-productivity", Label: "Team productivity"},
				{Name: "kpi", Endpoint: "dashboard/kpi", Label: "KPI"},
			},
		},
		RoleSpec{
			Role: "qi",
			Tables: []TableDescriptor{
				{Endpoint: "qi-inspections", Label: "Inspections", Columns: []string{"project", "inspection_type", "scheduled_date", "inspection_result", "is_completed"}},
				{Endpoint: "non-conformances", Label: "Non-Conformances", Columns: []string{"project", "description", "severity", "is_resolved"}},
			},
			Metrics: []MetricDescriptor{
				{Name: "pass_rate", Endpoint: "dashboard/inspection-pass-rate", Label: "Inspection pass rate"},
			},
		},
		RoleSpec{
			Role: "vendor",
			Tables: []TableDescriptor{
				{Endpoint: "vendor-bids", Label: "Bids", Columns: []string{"project", "amount", "submitted_at", "is_awarded"}},
				{Endpoint: "vendor-invoices", Label: "Invoices", Columns: []string{"work_order", "amount", "due_date", "is_paid"}},
			},
			Metrics: []MetricDescriptor{
				{Name: "earnings", Endpoint: "dashboard/vendor-earnings", Label: "Earnings"},
			},
		},
		RoleSpec{
			Role: "supervisor",
			Tables: []TableDescriptor{
				{Endpoint: "daily-logs", Label: "Daily Logs", Columns: []string{"project", "log_date", "workers_present", "weather", "is_submitted"}},
				workOrders,
			},
			Metrics: []MetricDescriptor{
				{Name: "summary", Endpoint: "dashboard/summary", Label: "Summary"},
				{Name: "attendance", Endpoint: "dashboard/attendance", Label: "Attendance"},
			},
		},
	)
}
