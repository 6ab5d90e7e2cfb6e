package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type Config struct {
	HTTP_ADDR            string
	APP_ENV              string
	LOG_LEVEL            string
	DB_HOST              string
	DB_PORT              string
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	JWT_SECRET           string
	REFRESH_SECRET       string
	KAFKA_ADDRESS        string
	ES_URL               string
	ES_USER              string
	ES_PASSWORD          string
	SMTP_HOST            string
	SMTP_PORT            string
	SMTP_USER            string
	SMTP_PASS            string
	SMTP_FROM            string
	GOOGLE_CLIENT_ID     string
	GOOGLE_CLIENT_SECRET string
	FRONTEND_URL         string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		HTTP_ADDR:            getDefault("HTTP_ADDR", ":8080"),
		APP_ENV:              getDefault("APP_ENV", "production"),
		LOG_LEVEL:            getDefault("LOG_LEVEL", "info"),
		DB_HOST:              os.Getenv("DB_HOST"),
		DB_PORT:              os.Getenv("DB_PORT"),
		DB_USER:              os.Getenv("DB_USER"),
		DB_PASSWORD:          os.Getenv("DB_PASSWORD"),
		DB_NAME:              os.Getenv("DB_NAME"),
		JWT_SECRET:           os.Getenv("JWT_SECRET"),
		REFRESH_SECRET:       os.Getenv("REFRESH_SECRET"),
		KAFKA_ADDRESS:        os.Getenv("KAFKA_ADDRESS"),
		ES_URL:               os.Getenv("ES_URL"),
		ES_USER:              os.Getenv("ES_USER"),
		ES_PASSWORD:          os.Getenv("ES_PASSWORD"),
		SMTP_HOST:            os.Getenv("SMTP_HOST"),
		SMTP_PORT:            getDefault("SMTP_PORT", "587"),
		SMTP_USER:            os.Getenv("SMTP_USER"),
		SMTP_PASS:            os.Getenv("SMTP_PASS"),
		SMTP_FROM:            os.Getenv("SMTP_FROM"),
		GOOGLE_CLIENT_ID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GOOGLE_CLIENT_SECRET: os.Getenv("GOOGLE_CLIENT_SECRET"),
		FRONTEND_URL:         getDefault("FRONTEND_URL", "http://localhost:8080"),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// validate refuses to start without signing secrets. There is deliberately
// no fallback default for either secret.
func (c *Config) validate() error {
	var missing []string
	for _, v := range []struct{ name, value string }{
		{"JWT_SECRET", c.JWT_SECRET},
		{"REFRESH_SECRET", c.REFRESH_SECRET},
		{"DB_HOST", c.DB_HOST},
		{"DB_PORT", c.DB_PORT},
		{"DB_USER", c.DB_USER},
		{"DB_NAME", c.DB_NAME},
	} {
		if v.value == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) Development() bool {
	return c.APP_ENV == "development"
}

func getDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
