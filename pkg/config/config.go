package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	BigQuery      BigQueryConfig
	Relationships RelationshipsConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GREENLEAGUE_APP_ENV" required:"true"`
	Port         string `envconfig:"GREENLEAGUE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"GREENLEAGUE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GREENLEAGUE_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"GREENLEAGUE_LOG_FORMAT"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GREENLEAGUE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GREENLEAGUE_DB_DSN"`
	Driver string `envconfig:"GREENLEAGUE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GREENLEAGUE_DB_HOST"`
	LegacyPort     int    `envconfig:"GREENLEAGUE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GREENLEAGUE_DB_USER"`
	LegacyPassword string `envconfig:"GREENLEAGUE_DB_PASSWORD"`
	LegacyName     string `envconfig:"GREENLEAGUE_DB_NAME"`
	LegacySSLMode  string `envconfig:"GREENLEAGUE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GREENLEAGUE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GREENLEAGUE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GREENLEAGUE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GREENLEAGUE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"GREENLEAGUE_DB_SLOW_QUERY_THRESHOLD" default:"2s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GREENLEAGUE_REDIS_URL"`
	Address      string        `envconfig:"GREENLEAGUE_REDIS_ADDR"`
	Password     string        `envconfig:"GREENLEAGUE_REDIS_PASSWORD"`
	DB           int           `envconfig:"GREENLEAGUE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GREENLEAGUE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GREENLEAGUE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GREENLEAGUE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GREENLEAGUE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GREENLEAGUE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GREENLEAGUE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GREENLEAGUE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GREENLEAGUE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"GREENLEAGUE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GREENLEAGUE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type BigQueryConfig struct {
	Dataset     string `envconfig:"GREENLEAGUE_BIGQUERY_DATASET" default:"market_data"`
	OrdersTable string `envconfig:"GREENLEAGUE_BIGQUERY_ORDERS_TABLE" default:"orders"`
}

// RelationshipsConfig tunes the relationship snapshot sync.
type RelationshipsConfig struct {
	UnmatchedSampleSize int           `envconfig:"GREENLEAGUE_RELATIONSHIPS_UNMATCHED_SAMPLE_SIZE" default:"10"`
	FailureLogLimit     int           `envconfig:"GREENLEAGUE_RELATIONSHIPS_FAILURE_LOG_LIMIT" default:"5"`
	DeleteTimeout       time.Duration `envconfig:"GREENLEAGUE_RELATIONSHIPS_DELETE_TIMEOUT" default:"30s"`
	InsertTimeout       time.Duration `envconfig:"GREENLEAGUE_RELATIONSHIPS_INSERT_TIMEOUT" default:"5s"`
	LockTTL             time.Duration `envconfig:"GREENLEAGUE_RELATIONSHIPS_LOCK_TTL" default:"1h"`
	BackfillDays        int           `envconfig:"GREENLEAGUE_RELATIONSHIPS_BACKFILL_DAYS" default:"1"`
}

type CronConfig struct {
	Interval       time.Duration `envconfig:"GREENLEAGUE_CRON_INTERVAL" default:"24h"`
	JobTimeout     time.Duration `envconfig:"GREENLEAGUE_CRON_JOB_TIMEOUT" default:"2h"`
	SkipInitialRun bool          `envconfig:"GREENLEAGUE_CRON_SKIP_INITIAL_RUN" default:"false"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
