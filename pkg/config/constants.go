package config

const (
	EnvPrefix = "DJASSA"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	// PaymentModeSimulation routes every payment through the in-process
	// simulation provider regardless of phone prefix.
	PaymentModeSimulation = "SIMULATION"
	PaymentModeProduction = "PRODUCTION"

	EnvAppEnv = "DJASSA_APP_ENV"
	EnvDBHost = "DJASSA_DB_HOST"
	EnvDBUser = "DJASSA_DB_USER"
	EnvDBName = "DJASSA_DB_NAME"
)
