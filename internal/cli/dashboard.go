package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"portal/internal/dashboard"
	"portal/internal/view"
)

func (a *app) dashboardCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Fetch all dashboard metrics of a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.role(role)
			if err != nil {
				return err
			}
			d := dashboard.New(a.reg.Metrics(r), a.client, dashboard.WithLogger(a.log))
			defer d.Close()
			results := d.Load(cmd.Context())
			if a.output == OutputJSON {
				return writeJSON(a.out, results)
			}
			rows := make([][]string, 0, len(results))
			for _, res := range results {
				sum := dashboard.Summarize(res.Data)
				value := ""
				switch {
				case res.Status != dashboard.StatusReady:
				case sum.Count > 0:
					value = "sum=" + formatFloat(sum.Sum) + " avg=" + formatFloat(sum.Average)
					if sum.KPI != "" {
						value += " kpi=" + string(sum.KPI)
					}
				default:
					value = view.Stringify(res.Data)
				}
				rows = append(rows, []string{res.Metric.Label, string(res.Status), value, res.Error})
			}
			renderTable(a.out, []string{"metric", "status", "value", "error"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Role (default: role of the current session)")
	return cmd
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
