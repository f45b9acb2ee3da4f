package config

const (
	// EnvPrefix is the envconfig prefix shared by every section.
	EnvPrefix = "gymstore"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "GYMSTORE_APP_ENV"
	EnvPort       = "GYMSTORE_APP_PORT"
	EnvDBDSN      = "GYMSTORE_DB_DSN"
	EnvDBHost     = "GYMSTORE_DB_HOST"
	EnvDBUser     = "GYMSTORE_DB_USER"
	EnvDBName     = "GYMSTORE_DB_NAME"
	EnvRedisURL   = "GYMSTORE_REDIS_URL"
	EnvJWTSecret  = "GYMSTORE_JWT_SECRET"
	EnvJWTIssuer  = "GYMSTORE_JWT_ISSUER"
	EnvJWTExpMins = "GYMSTORE_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
