package cli

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"portal/internal/backend"
	"portal/internal/view"
)

func (a *app) tableView(role, endpoint string) (*view.TableView, error) {
	r, err := a.role(role)
	if err != nil {
		return nil, err
	}
	td, ok := a.reg.Table(r, endpoint)
	if !ok {
		return nil, errors.Errorf("role %q has no table %q", r, endpoint)
	}
	return view.NewTableView(td, a.client,
		view.WithLogger(a.log),
		view.WithNoticeTTL(a.cfg.NoticeTTL),
	), nil
}

// parseSet: ["k=v", ...] -> map; значение может содержать "="
func parseSet(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.Errorf("--set %q: expected column=value", p)
		}
		out[k] = v
	}
	return out, nil
}

func checkColumns(v *view.TableView, values map[string]string) error {
	cols := map[string]struct{}{}
	for _, c := range v.Descriptor().Columns {
		cols[c] = struct{}{}
	}
	for k := range values {
		if _, ok := cols[k]; !ok {
			return errors.Errorf("%q is not a column of %s", k, v.Descriptor().Endpoint)
		}
	}
	return nil
}

// finishWrite печатает итог записи; сбой перечитывания не делает команду неуспешной
func (a *app) finishWrite(v *view.TableView, err error) error {
	var re *view.ReloadError
	if err != nil && !errors.As(err, &re) {
		if msg := v.Snapshot().Error; msg != "" {
			return errors.New(msg)
		}
		return err
	}
	snap := v.Snapshot()
	if a.output == OutputJSON {
		return writeJSON(a.out, map[string]any{
			"notice": snap.Notice,
			"error":  snap.Error,
			"total":  len(snap.Rows),
		})
	}
	banner(a.out, snap.Notice, snap.Error)
	return nil
}

func (a *app) createCmd() *cobra.Command {
	var (
		role, endpoint string
		set            []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a record (--set column=value, booleans: true|false|empty)",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.tableView(role, endpoint)
			if err != nil {
				return err
			}
			defer v.Close()
			values, err := parseSet(set)
			if err != nil {
				return err
			}
			if err := checkColumns(v, values); err != nil {
				return err
			}
			// загрузка нужна, чтобы определить булевы колонки по данным
			_ = v.Load(cmd.Context())
			v.OpenAdd()
			rec := view.ParseForm(v.Form(nil), values)
			return a.finishWrite(v, v.Create(cmd.Context(), rec))
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Role (default: role of the current session)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Table endpoint")
	cmd.Flags().StringArrayVar(&set, "set", nil, "column=value (repeatable)")
	_ = cmd.MarkFlagRequired("endpoint")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var (
		role, endpoint, id string
		set                []string
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Edit a record; columns not given keep their current value",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.tableView(role, endpoint)
			if err != nil {
				return err
			}
			defer v.Close()
			values, err := parseSet(set)
			if err != nil {
				return err
			}
			if err := checkColumns(v, values); err != nil {
				return err
			}
			rec, err := a.find(cmd, v, id)
			if err != nil {
				return err
			}
			v.OpenEdit(rec)
			return a.finishWrite(v, v.Update(cmd.Context(), rec, view.ParseForm(v.Form(nil), values)))
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Role (default: role of the current session)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Table endpoint")
	cmd.Flags().StringVar(&id, "id", "", "Record id")
	cmd.Flags().StringArrayVar(&set, "set", nil, "column=value (repeatable)")
	_ = cmd.MarkFlagRequired("endpoint")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	var (
		role, endpoint, id string
		yes                bool
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a record (requires --yes)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.Wrap(view.ErrNotConfirmed, "pass --yes to delete")
			}
			v, err := a.tableView(role, endpoint)
			if err != nil {
				return err
			}
			defer v.Close()
			rec, err := a.find(cmd, v, id)
			if err != nil {
				return err
			}
			return a.finishWrite(v, v.Delete(cmd.Context(), rec, yes))
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "Role (default: role of the current session)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Table endpoint")
	cmd.Flags().StringVar(&id, "id", "", "Record id")
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	_ = cmd.MarkFlagRequired("endpoint")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func (a *app) find(cmd *cobra.Command, v *view.TableView, id string) (backend.Record, error) {
	if err := v.Load(cmd.Context()); err != nil {
		return nil, errors.New(v.Snapshot().Error)
	}
	rec, ok := v.Find(strings.TrimSpace(id))
	if !ok {
		return nil, errors.Errorf("record %q not found in %s", id, v.Descriptor().Endpoint)
	}
	return rec, nil
}
