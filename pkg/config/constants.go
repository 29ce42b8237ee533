package config

// EnvPrefix namespaces every environment variable the app reads.
const EnvPrefix = "BALADY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "BALADY_DB_DSN"
	EnvDBHost = "BALADY_DB_HOST"
	EnvDBUser = "BALADY_DB_USER"
	EnvDBName = "BALADY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
