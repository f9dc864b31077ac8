package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	JWTSecret  string

	// Storefront base URL; payment callbacks redirect back here.
	FrontendURL string
	PublicURL   string
	CORSOrigin  string
	// Requests carrying this key in X-Service-Auth get the internal rate tier.
	InternalKey string

	BkashBaseURL   string
	BkashAppKey    string
	BkashAppSecret string
	BkashUsername  string
	BkashPassword  string

	PaymentInitURL     string
	PaymentStoreID     string
	PaymentStoreKey    string
	PaymentValidateURL string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	KafkaBrokers []string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    getenvDefault("APP_PORT", "8080"),
		AppEnv:     os.Getenv("APP_ENV"),
		JWTSecret:  os.Getenv("JWT_SECRET"),

		FrontendURL: getenvDefault("FRONTEND_URL", "http://localhost:3000"),
		PublicURL:   getenvDefault("PUBLIC_URL", "http://localhost:8080"),
		InternalKey: os.Getenv("INTERNAL_API_KEY"),

		BkashBaseURL:   os.Getenv("BKASH_BASE_URL"),
		BkashAppKey:    os.Getenv("BKASH_APP_KEY"),
		BkashAppSecret: os.Getenv("BKASH_APP_SECRET"),
		BkashUsername:  os.Getenv("BKASH_USERNAME"),
		BkashPassword:  os.Getenv("BKASH_PASSWORD"),

		PaymentInitURL:     os.Getenv("PAYMENT_INIT_URL"),
		PaymentStoreID:     os.Getenv("PAYMENT_STORE_ID"),
		PaymentStoreKey:    os.Getenv("PAYMENT_STORE_KEY"),
		PaymentValidateURL: os.Getenv("PAYMENT_VALIDATE_URL"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getenvDefault("SMTP_PORT", "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
	}

	cfg.CORSOrigin = getenvDefault("CORS_ORIGIN", cfg.FrontendURL)

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
