package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	StoreDriver string
	MongoURI    string
	DBName      string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RedisAddr      string
	IdempotencyTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	ServiceName  string

	PaymentGateway        string
	PaypackBaseURL        string
	PaypackClientID       string
	PaypackClientSecret   string
	PaymentCallbackSecret string
	GatewayTimeout        time.Duration
	CancelOnPaymentFailed bool

	UploadDir     string
	PublicBaseURL string
	OTPTTL        time.Duration
}

// Load reads .env (when present) and the process environment. The result is
// meant to be built once in main and passed down explicitly.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	return Config{
		Port:        getEnvOrDefault("PORT", "4000"),
		StoreDriver: getEnvOrDefault("STORE_DRIVER", "mongo"),
		MongoURI:    getEnvOrDefault("MONGO_URI", ""),
		DBName:      getEnvOrDefault("DB_NAME", "storefront"),

		JWTSecret:       getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:  getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),
		RefreshTokenTTL: getDurationEnv("REFRESH_TOKEN_TTL", 7, 24*time.Hour),

		RedisAddr:      getEnvOrDefault("REDIS_ADDR", ""),
		IdempotencyTTL: getDurationEnv("IDEMPOTENCY_TTL", 24, time.Hour),

		KafkaBrokers: splitCSV(getEnvOrDefault("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnvOrDefault("KAFKA_TOPIC", "storefront.orders"),
		ServiceName:  getEnvOrDefault("SERVICE_NAME", "storefront-api"),

		PaymentGateway:        getEnvOrDefault("PAYMENT_GATEWAY", "sandbox"),
		PaypackBaseURL:        getEnvOrDefault("PAYPACK_BASE_URL", "https://payments.paypack.rw/api"),
		PaypackClientID:       getEnvOrDefault("PAYPACK_CLIENT_ID", ""),
		PaypackClientSecret:   getEnvOrDefault("PAYPACK_CLIENT_SECRET", ""),
		PaymentCallbackSecret: getEnvOrDefault("PAYMENT_CALLBACK_SECRET", ""),
		GatewayTimeout:        getDurationEnv("GATEWAY_TIMEOUT", 15, time.Second),
		CancelOnPaymentFailed: getBoolEnv("CANCEL_ORDER_ON_PAYMENT_FAILURE", false),

		UploadDir:     getEnvOrDefault("UPLOAD_DIR", "./public/uploads"),
		PublicBaseURL: getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:4000/public/uploads"),
		OTPTTL:        getDurationEnv("OTP_TTL", 10, time.Minute),
	}
}

// Validate reports settings the process cannot start without.
func (c Config) Validate() []string {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.StoreDriver == "mongo" && c.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if c.PaymentCallbackSecret == "" {
		missing = append(missing, "PAYMENT_CALLBACK_SECRET")
	}
	if c.PaymentGateway == "paypack" && (c.PaypackClientID == "" || c.PaypackClientSecret == "") {
		missing = append(missing, "PAYPACK_CLIENT_ID/PAYPACK_CLIENT_SECRET")
	}
	return missing
}
