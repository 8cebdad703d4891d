package cli

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"portal/internal/backend"
	"portal/internal/config"
	"portal/internal/logging"
	"portal/internal/registry"
	"portal/internal/session"
)

const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// app держит общее состояние команд (конфиг, клиент, сессию)
type app struct {
	out io.Writer

	configPath  string
	apiBase     string
	sessionFile string
	registryDir string
	logLevel    string
	output      string
	timeout     time.Duration

	cfg      config.Config
	log      *zap.Logger
	reg      *registry.Registry
	client   *backend.Client
	store    *session.Store
	sessions *session.Manager
}

func NewRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Role-aware tables and dashboards of the work-order portal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "portal.json", "Path to config JSON")
	pf.StringVar(&a.apiBase, "api-base", "", "Backend base URL")
	pf.StringVar(&a.sessionFile, "session-file", "", "Session store file")
	pf.StringVar(&a.registryDir, "registry", "", "Role registry directory")
	pf.StringVar(&a.logLevel, "log-level", "warn", "Log level")
	pf.StringVarP(&a.output, "output", "o", OutputTable, "Output format: table|json")
	pf.DurationVar(&a.timeout, "timeout", 0, "Backend request timeout")

	root.AddCommand(
		a.rolesCmd(),
		a.tablesCmd(),
		a.listCmd(),
		a.createCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.dashboardCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
	)
	return root
}

// Execute: точка входа portalctl
func Execute() error {
	return NewRootCmd(os.Stdout).Execute()
}

func (a *app) setup(cmd *cobra.Command) error {
	config.LoadDotEnv()
	cfg, err := config.Load(a.configPath, nil)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-base") {
		cfg.APIBase = strings.TrimSpace(a.apiBase)
	}
	if flags.Changed("session-file") {
		cfg.SessionFile = strings.TrimSpace(a.sessionFile)
	}
	if flags.Changed("registry") {
		cfg.RegistryDir = strings.TrimSpace(a.registryDir)
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = a.timeout
	}
	switch a.output {
	case OutputTable, OutputJSON:
	default:
		return errors.Errorf("unknown output %q (table|json)", a.output)
	}
	a.cfg = cfg

	if a.log, err = logging.New(a.logLevel, true); err != nil {
		return err
	}
	if a.reg, err = registry.Load(cfg.RegistryDir); err != nil {
		return err
	}
	if a.store, err = session.Open(cfg.SessionFile); err != nil {
		return err
	}
	a.client = backend.NewClient(cfg.APIBase,
		backend.WithTimeout(cfg.RequestTimeout),
		backend.WithLogger(a.log),
	)
	a.sessions = session.NewManager(a.store, a.client, a.reg, a.log)
	return nil
}

// role: флаг, иначе роль из сессии
func (a *app) role(flag string) (string, error) {
	if r := registry.NormalizeRole(flag); r != "" {
		return r, nil
	}
	if st := a.sessions.Current(); st.Authenticated && st.Role != "" {
		return st.Role, nil
	}
	return "", errors.New("--role is required (or log in first)")
}
