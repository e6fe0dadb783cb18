package config

const (
	EnvPrefix = "PARTSDEALER"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	PaymentProviderMobileMoney = "mobile_money"
	PaymentProviderSquare      = "square"

	EnvAppEnv             = "PARTSDEALER_APP_ENV"
	EnvPort               = "PARTSDEALER_APP_PORT"
	EnvDBDSN              = "PARTSDEALER_DB_DSN"
	EnvDBHost             = "PARTSDEALER_DB_HOST"
	EnvDBUser             = "PARTSDEALER_DB_USER"
	EnvDBName             = "PARTSDEALER_DB_NAME"
	EnvRedisURL           = "PARTSDEALER_REDIS_URL"
	EnvJWTSecret          = "PARTSDEALER_JWT_SECRET"
	EnvJWTIssuer          = "PARTSDEALER_JWT_ISSUER"
	EnvTaxRate            = "PARTSDEALER_TAX_RATE"
	EnvPaymentProvider    = "PARTSDEALER_PAYMENT_PROVIDER"
	EnvPaymentTimeout     = "PARTSDEALER_PAYMENT_TIMEOUT"
	EnvMobileMoneyBaseURL = "PARTSDEALER_MOBILE_MONEY_BASE_URL"
	EnvSquareAccessToken  = "PARTSDEALER_SQUARE_ACCESS_TOKEN"
	EnvSquareLocationID   = "PARTSDEALER_SQUARE_LOCATION_ID"
	EnvShippingStandard   = "PARTSDEALER_SHIPPING_STANDARD_CENTS"
)
