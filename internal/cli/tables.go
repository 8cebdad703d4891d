package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"portal/internal/view"
)

func (a *app) rolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List roles with their routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			roles := a.reg.Roles()
			if a.output == OutputJSON {
				out := make([]map[string]any, 0, len(roles))
				for _, r := range roles {
					out = append(out, map[string]any{
						"role":    r,
						"route":   a.reg.RouteFor(r),
						"tables":  len(a.reg.Tables(r)),
						"metrics": len(a.reg.Metrics(r)),
					})
				}
				return writeJSON(a.out, out)
			}
			rows := make([][]string, 0, len(roles))
			for _, r := range roles {
				rows = append(rows, []string{r, a.reg.RouteFor(r),
					strconv.Itoa(len(a.reg.Tables(r))), strconv.Itoa(len(a.reg.Metrics(r)))})
			}
			renderTable(a.out, []string{"role", "route", "tables", "metrics"}, rows)
			return nil
		},
	}
}

func (a *app) tablesCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables available to a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.role(role)
			if err != nil {
				return err
			}
			tables := a.reg.Tables(r)
			if a.output == OutputJSON {
				return writeJSON(a.out, tables)
			}
			rows := make([][]string, 0, len(tables))
			for _, td := range tables {
				rows = append(rows, []string{td.Endpoint, td.Label, strings.Join(td.Columns, ", "), td.IDField})
			}
			renderTable(a.out, []string{"endpoint", "label", "columns", "id_field"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Role (default: role of the current session)")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var (
		role, endpoint string
		page, size     int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show one page of a role table",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.tableView(role, endpoint)
			if err != nil {
				return err
			}
			defer v.Close()
			if err := v.Load(cmd.Context()); err != nil {
				return errors.New(v.Snapshot().Error)
			}
			// --page с единицы, как в пагинаторе
			p := v.Page(page-1, size)
			if a.output == OutputJSON {
				return writeJSON(a.out, p)
			}
			a.renderPage(v, p)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Role (default: role of the current session)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Table endpoint")
	cmd.Flags().IntVar(&page, "page", 1, "Page number (from 1)")
	cmd.Flags().IntVar(&size, "size", view.DefaultPageSize, "Rows per page: 5, 10 or 25")
	_ = cmd.MarkFlagRequired("endpoint")
	return cmd
}

func (a *app) renderPage(v *view.TableView, p view.Page) {
	td := v.Descriptor()
	rows := make([][]string, 0, len(p.Rows))
	for _, r := range p.Rows {
		cells := make([]string, 0, len(td.Columns)+1)
		for _, col := range td.Columns {
			cells = append(cells, view.Stringify(r[col]))
		}
		id, err := view.ResolveID(td, r)
		if err != nil {
			id = "-"
		}
		cells = append(cells, id)
		rows = append(rows, cells)
	}
	renderTable(a.out, v.Headers(), rows)
	fmt.Fprintf(a.out, "page %d/%d, %d rows\n", p.Number+1, max(p.Pages, 1), p.Total)
}
