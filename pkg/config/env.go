package config

// Environment variable names used outside of envconfig tag processing
// (test setup, error messages, DSN fallback assembly).
const (
	EnvPrefix = "VOYAGO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "VOYAGO_APP_ENV"
	EnvPort   = "VOYAGO_APP_PORT"

	EnvDBDSN      = "VOYAGO_DB_DSN"
	EnvDBHost     = "VOYAGO_DB_HOST"
	EnvDBUser     = "VOYAGO_DB_USER"
	EnvDBName     = "VOYAGO_DB_NAME"
	EnvDBPassword = "VOYAGO_DB_PASSWORD"

	EnvRedisURL = "VOYAGO_REDIS_URL"

	EnvJWTSecret  = "VOYAGO_JWT_SECRET"
	EnvJWTIssuer  = "VOYAGO_JWT_ISSUER"
	EnvJWTExpMins = "VOYAGO_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "VOYAGO_GCP_PROJECT_ID"

	EnvPubSubBookingsTopic = "VOYAGO_PUBSUB_BOOKINGS_TOPIC"
	EnvPubSubBookingsSub   = "VOYAGO_PUBSUB_BOOKINGS_SUBSCRIPTION"

	EnvStripeAPIKey = "VOYAGO_STRIPE_API_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
