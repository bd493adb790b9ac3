package config

const EnvPrefix = "GREENLEAGUE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

// DefaultSQLiteDSN is used when the sqlite flag is on and no DSN is supplied.
const DefaultSQLiteDSN = "file:greenleague.db?cache=shared&_foreign_keys=on"

const (
	EnvAppEnv    = "GREENLEAGUE_APP_ENV"
	EnvPort      = "GREENLEAGUE_APP_PORT"
	EnvLogFormat = "GREENLEAGUE_LOG_FORMAT"
	EnvDBDSN     = "GREENLEAGUE_DB_DSN"
	EnvDBHost    = "GREENLEAGUE_DB_HOST"
	EnvDBUser    = "GREENLEAGUE_DB_USER"
	EnvDBName    = "GREENLEAGUE_DB_NAME"
	EnvUseSQLite = "GREENLEAGUE_USE_SQLITE"
	EnvRedisURL  = "GREENLEAGUE_REDIS_URL"

	EnvGCPProjectID        = "GREENLEAGUE_GCP_PROJECT_ID"
	EnvBigQueryOrdersTable = "GREENLEAGUE_BIGQUERY_ORDERS_TABLE"

	EnvRelationshipsSampleSize    = "GREENLEAGUE_RELATIONSHIPS_UNMATCHED_SAMPLE_SIZE"
	EnvRelationshipsInsertTimeout = "GREENLEAGUE_RELATIONSHIPS_INSERT_TIMEOUT"

	EnvCronJobTimeout = "GREENLEAGUE_CRON_JOB_TIMEOUT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
