package config

// EnvPrefix is the envconfig namespace; individual fields pin explicit names so
// the prefix only matters for fields without tags.
const EnvPrefix = "DUKA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"

	DarajaEnvSandbox    = "sandbox"
	DarajaEnvProduction = "production"
)

const (
	EnvDBDSN  = "DUKA_DB_DSN"
	EnvDBHost = "DUKA_DB_HOST"
	EnvDBUser = "DUKA_DB_USER"
	EnvDBName = "DUKA_DB_NAME"

	EnvDarajaConsumerKey    = "DUKA_MPESA_CONSUMER_KEY"
	EnvDarajaConsumerSecret = "DUKA_MPESA_CONSUMER_SECRET"
	EnvDarajaPassKey        = "DUKA_MPESA_PASS_KEY"
	EnvDarajaCallbackURL    = "DUKA_MPESA_CALLBACK_URL"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
