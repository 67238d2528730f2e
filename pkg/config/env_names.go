package config

// EnvPrefix scopes every environment variable read by envconfig.
const EnvPrefix = "TABLESERVE"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Canonical env var names, shared by Load, tests, and ops tooling.
const (
	EnvAppEnv   = "TABLESERVE_APP_ENV"
	EnvPort     = "TABLESERVE_APP_PORT"
	EnvLogLevel = "TABLESERVE_LOG_LEVEL"

	EnvDBDSN  = "TABLESERVE_DB_DSN"
	EnvDBHost = "TABLESERVE_DB_HOST"
	EnvDBPort = "TABLESERVE_DB_PORT"
	EnvDBUser = "TABLESERVE_DB_USER"
	EnvDBName = "TABLESERVE_DB_NAME"

	EnvRedisURL = "TABLESERVE_REDIS_URL"

	EnvVATRate = "TABLESERVE_BILLING_VAT_RATE"

	EnvTableTokenSecret = "TABLESERVE_TABLE_TOKEN_SECRET"

	EnvGCPProjectID = "TABLESERVE_GCP_PROJECT_ID"

	EnvPubSubOrderEventsTopic = "TABLESERVE_PUBSUB_ORDER_EVENTS_TOPIC"
	EnvPubSubOrderEventsSub   = "TABLESERVE_PUBSUB_ORDER_EVENTS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
