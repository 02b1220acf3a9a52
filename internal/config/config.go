package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	DatabaseURL string

	JWTIssuer           string
	JWTAccessSecret     string
	JWTRefreshSecret    string
	AccessTokenTTLMin   int
	RefreshTokenTTLDays int

	// Checkout pricing rules. Amounts are rupees.
	FreeShippingThreshold float64
	ShippingFee           float64
	TaxRate               float64

	// PhonePe payment gateway
	PhonePeMerchantID string
	PhonePeSaltKey    string
	PhonePeSaltIndex  string
	PhonePeBaseURL    string
	GatewayTimeout    time.Duration

	FrontendURL string

	// optional: refund/payment events via RabbitMQ (empty = disabled)
	RabbitMQURL string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string
}

func Load() Config {
	return Config{
		AppEnv:   get("APP_ENV", "dev"),
		HTTPAddr: get("HTTP_ADDR", ":8080"),

		DatabaseURL: get("DATABASE_URL", ""),

		JWTIssuer:           get("JWT_ISSUER", "kidocart"),
		JWTAccessSecret:     get("JWT_ACCESS_SECRET", ""),
		JWTRefreshSecret:    get("JWT_REFRESH_SECRET", ""),
		AccessTokenTTLMin:   getInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTokenTTLDays: getInt("REFRESH_TOKEN_TTL_DAYS", 30),

		FreeShippingThreshold: getFloat("FREE_SHIPPING_THRESHOLD", 499),
		ShippingFee:           getFloat("SHIPPING_FEE", 49),
		TaxRate:               getFloat("TAX_RATE", 0.18),

		PhonePeMerchantID: get("PHONEPE_MERCHANT_ID", ""),
		PhonePeSaltKey:    get("PHONEPE_SALT_KEY", ""),
		PhonePeSaltIndex:  get("PHONEPE_SALT_INDEX", "1"),
		PhonePeBaseURL:    get("PHONEPE_API_URL", "https://api-preprod.phonepe.com/apis/pg-sandbox"),
		GatewayTimeout:    time.Duration(getInt("GATEWAY_TIMEOUT_SEC", 10)) * time.Second,

		FrontendURL: get("FRONTEND_URL", "http://localhost:8080"),

		RabbitMQURL: get("RABBITMQ_URL", ""),

		SMTPHost: get("SMTP_HOST", ""),
		SMTPPort: getInt("SMTP_PORT", 587),
		SMTPUser: get("SMTP_USER", ""),
		SMTPPass: get("SMTP_PASS", ""),
		SMTPFrom: get("SMTP_FROM", ""),
	}
}

func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
