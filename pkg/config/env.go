package config

const (
	EnvPrefix = "SHOWRUNNER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "SHOWRUNNER_APP_ENV"
	EnvPort     = "SHOWRUNNER_APP_PORT"
	EnvLogLevel = "SHOWRUNNER_LOG_LEVEL"

	EnvDBDSN  = "SHOWRUNNER_DB_DSN"
	EnvDBHost = "SHOWRUNNER_DB_HOST"
	EnvDBUser = "SHOWRUNNER_DB_USER"
	EnvDBName = "SHOWRUNNER_DB_NAME"

	EnvRedisURL = "SHOWRUNNER_REDIS_URL"

	EnvReconAutoModeThreshold = "SHOWRUNNER_RECON_AUTO_MODE_THRESHOLD"
	EnvReconDefaultStart      = "SHOWRUNNER_RECON_DEFAULT_START"
	EnvReconLockTTL           = "SHOWRUNNER_RECON_LOCK_TTL"

	EnvUseSQLite   = "SHOWRUNNER_USE_SQLITE"
	EnvAutoMigrate = "SHOWRUNNER_AUTO_MIGRATE"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
