package config

// EnvPrefix namespaces every environment variable this service reads.
const EnvPrefix = "librarian"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvDBDSN  = "LIBRARIAN_DB_DSN"
	EnvDBHost = "LIBRARIAN_DB_HOST"
	EnvDBUser = "LIBRARIAN_DB_USER"
	EnvDBName = "LIBRARIAN_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
