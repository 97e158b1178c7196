package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App            AppConfig
	DB             DBConfig
	Redis          RedisConfig
	Reconciliation ReconciliationConfig
	Insights       InsightsConfig
	FeatureFlags   FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Reconciliation.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"SHOWRUNNER_APP_ENV" required:"true"`
	Port         string   `envconfig:"SHOWRUNNER_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"SHOWRUNNER_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"SHOWRUNNER_LOG_WARN_STACK" default:"false"`
	UserHeader   string   `envconfig:"SHOWRUNNER_USER_HEADER" default:"X-User-Id"`
	CORSOrigins  []string `envconfig:"SHOWRUNNER_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOWRUNNER_DB_DSN"`
	Driver string `envconfig:"SHOWRUNNER_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SHOWRUNNER_DB_HOST"`
	Port     int    `envconfig:"SHOWRUNNER_DB_PORT" default:"5432"`
	User     string `envconfig:"SHOWRUNNER_DB_USER"`
	Password string `envconfig:"SHOWRUNNER_DB_PASSWORD"`
	Name     string `envconfig:"SHOWRUNNER_DB_NAME"`
	SSLMode  string `envconfig:"SHOWRUNNER_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"SHOWRUNNER_SQLITE_PATH" default:"showrunner.db"`

	MaxOpenConns    int           `envconfig:"SHOWRUNNER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOWRUNNER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOWRUNNER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOWRUNNER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOWRUNNER_REDIS_URL"`
	Address      string        `envconfig:"SHOWRUNNER_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"SHOWRUNNER_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOWRUNNER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOWRUNNER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOWRUNNER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOWRUNNER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOWRUNNER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOWRUNNER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type ReconciliationConfig struct {
	// AutoModeThreshold is the share of parsable item cells that keeps auto mode on item numbers.
	AutoModeThreshold float64       `envconfig:"SHOWRUNNER_RECON_AUTO_MODE_THRESHOLD" default:"0.8"`
	DefaultStart      int           `envconfig:"SHOWRUNNER_RECON_DEFAULT_START" default:"1"`
	DefaultChannel    string        `envconfig:"SHOWRUNNER_RECON_DEFAULT_CHANNEL" default:"whatnot"`
	MaxUploadBytes    int64         `envconfig:"SHOWRUNNER_RECON_MAX_UPLOAD_BYTES" default:"10485760"`
	LockTTL           time.Duration `envconfig:"SHOWRUNNER_RECON_LOCK_TTL" default:"2m"`
	IdempotencyTTL    time.Duration `envconfig:"SHOWRUNNER_RECON_IDEMPOTENCY_TTL" default:"24h"`
}

func (r ReconciliationConfig) validate() error {
	if r.AutoModeThreshold <= 0 || r.AutoModeThreshold > 1 {
		return fmt.Errorf("%s must be in (0, 1], got %v", EnvReconAutoModeThreshold, r.AutoModeThreshold)
	}
	if r.DefaultStart < 0 {
		return fmt.Errorf("%s must be >= 0", EnvReconDefaultStart)
	}
	return nil
}

type InsightsConfig struct {
	DefaultMinSampleSize int `envconfig:"SHOWRUNNER_INSIGHTS_MIN_SAMPLE" default:"3"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SHOWRUNNER_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SHOWRUNNER_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = db.SQLitePath
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
