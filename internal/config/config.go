package config

import (
	"encoding/json"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const EnvPrefix = "PORTAL_"

type Config struct {
	Port           string        `json:"port"`
	APIBase        string        `json:"apiBase"`
	RequestTimeout time.Duration `json:"-"`
	RegistryDir    string        `json:"registryDir"`
	SessionFile    string        `json:"sessionFile"`
	NoticeTTL      time.Duration `json:"-"`
	LogLevel       string        `json:"logLevel"`
	LogDev         bool          `json:"logDev"`

	// локальный dev-бэкенд внутри процесса сервера
	DevBackend  bool   `json:"devBackend"`
	DevEnvelope bool   `json:"devEnvelope"` // списки конвертом {count, results}
	DBURL       string `json:"dbUrl"`
	AutoMigrate bool   `json:"autoMigrate"`
}

// в JSON длительности строками: "15s", "3s"
type fileConfig struct {
	Config
	RequestTimeout string `json:"requestTimeout"`
	NoticeTTL      string `json:"noticeTTL"`
}

func def() Config {
	return Config{
		Port:           "8080",
		APIBase:        "http://127.0.0.1:8000/api/v1",
		RequestTimeout: 15 * time.Second,
		RegistryDir:    "registry",
		SessionFile:    defaultSessionFile(),
		NoticeTTL:      3 * time.Second,
		LogLevel:       "info",
		LogDev:         false,
		DevBackend:     false,
		DevEnvelope:    false,
		DBURL:          "",
		AutoMigrate:    false,
	}
}

func defaultSessionFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "portal" + string(os.PathSeparator) + "session.yaml"
	}
	return ".portal-session.yaml"
}

func loadJSON(path string, base Config) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, errors.Wrapf(err, "read config %s", path)
	}
	fc := fileConfig{Config: base}
	if err := json.Unmarshal(b, &fc); err != nil {
		return base, errors.Wrapf(err, "parse config %s", path)
	}
	c := fc.Config
	if fc.RequestTimeout != "" {
		d, err := time.ParseDuration(fc.RequestTimeout)
		if err != nil {
			return base, errors.Wrap(err, "requestTimeout")
		}
		c.RequestTimeout = d
	}
	if fc.NoticeTTL != "" {
		d, err := time.ParseDuration(fc.NoticeTTL)
		if err != nil {
			return base, errors.Wrap(err, "noticeTTL")
		}
		c.NoticeTTL = d
	}
	return c, nil
}

// LoadDotEnv: .env и .env.local, уже выставленные переменные не трогаем
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env.local", ".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(EnvPrefix + k); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(EnvPrefix + k); ok {
		if b, ok := parseBool(v); ok {
			return b
		}
	}
	return fallback
}

func getenvDuration(k string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(EnvPrefix + k)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fallback, errors.Wrapf(err, "%s%s", EnvPrefix, k)
	}
	return d, nil
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// Load: defaults -> JSON (если есть) -> ENV PORTAL_* -> флаги из args.
// jsonPath можно переопределить флагом -config.
func Load(jsonPath string, args []string) (Config, error) {
	fs := flag.NewFlagSet("portal", flag.ContinueOnError)
	configPath := fs.String("config", jsonPath, "Path to config JSON")
	port := fs.String("port", "", "HTTP port")
	apiBase := fs.String("api-base", "", "Backend base URL")
	timeout := fs.Duration("request-timeout", 0, "Backend request timeout")
	regDir := fs.String("registry", "", "Path to role registry directory")
	sessFile := fs.String("session-file", "", "Session store file")
	ttl := fs.Duration("notice-ttl", 0, "Success notice lifetime")
	level := fs.String("log-level", "", "Log level (debug/info/warn/error)")
	logDev := fs.String("log-dev", "", "Console log encoder (true/false)")
	dev := fs.String("dev-backend", "", "Serve a local backend at /api/v1 (true/false)")
	envelope := fs.String("dev-envelope", "", "Dev backend lists as {count, results} (true/false)")
	db := fs.String("db", "", "Postgres URL for the dev backend (empty = in-memory)")
	auto := fs.String("auto-migrate", "", "Apply dev backend DDL (true/false)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := def()

	// JSON (если файл существует)
	if st, err := os.Stat(*configPath); err == nil && !st.IsDir() {
		c2, err := loadJSON(*configPath, cfg)
		if err != nil {
			return Config{}, err
		}
		cfg = c2
	}

	// ENV overrides
	cfg.Port = getenv("PORT", cfg.Port)
	cfg.APIBase = getenv("API_BASE", cfg.APIBase)
	cfg.RegistryDir = getenv("REGISTRY_DIR", cfg.RegistryDir)
	cfg.SessionFile = getenv("SESSION_FILE", cfg.SessionFile)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogDev = getenvBool("LOG_DEV", cfg.LogDev)
	cfg.DevBackend = getenvBool("DEV_BACKEND", cfg.DevBackend)
	cfg.DevEnvelope = getenvBool("DEV_ENVELOPE", cfg.DevEnvelope)
	cfg.DBURL = getenv("DB_URL", cfg.DBURL)
	cfg.AutoMigrate = getenvBool("AUTO_MIGRATE", cfg.AutoMigrate)
	var err error
	if cfg.RequestTimeout, err = getenvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return Config{}, err
	}
	if cfg.NoticeTTL, err = getenvDuration("NOTICE_TTL", cfg.NoticeTTL); err != nil {
		return Config{}, err
	}

	// Flags overrides: только явно переданные
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	str := func(name string, dst *string, v string) {
		if set[name] {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(name string, dst *bool, v string) error {
		if !set[name] {
			return nil
		}
		b, ok := parseBool(v)
		if !ok {
			return errors.Errorf("-%s: invalid boolean %q", name, v)
		}
		*dst = b
		return nil
	}
	str("port", &cfg.Port, *port)
	str("api-base", &cfg.APIBase, *apiBase)
	str("registry", &cfg.RegistryDir, *regDir)
	str("session-file", &cfg.SessionFile, *sessFile)
	str("log-level", &cfg.LogLevel, *level)
	str("db", &cfg.DBURL, *db)
	if set["request-timeout"] {
		cfg.RequestTimeout = *timeout
	}
	if set["notice-ttl"] {
		cfg.NoticeTTL = *ttl
	}
	for name, pair := range map[string]struct {
		dst *bool
		v   string
	}{
		"log-dev":      {&cfg.LogDev, *logDev},
		"dev-backend":  {&cfg.DevBackend, *dev},
		"dev-envelope": {&cfg.DevEnvelope, *envelope},
		"auto-migrate": {&cfg.AutoMigrate, *auto},
	} {
		if err := boolean(name, pair.dst, pair.v); err != nil {
			return Config{}, err
		}
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.Errorf("port %q is not a number", c.Port)
	}
	if strings.TrimSpace(c.APIBase) == "" {
		return errors.New("apiBase is empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("requestTimeout must be positive")
	}
	if c.NoticeTTL < 0 {
		return errors.New("noticeTTL must not be negative")
	}
	return nil
}

// Addr: адрес для gin.Run
func (c Config) Addr() string { return ":" + c.Port }
