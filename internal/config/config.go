package config

import (
	"errors"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
)

// ErrMissingDatabase means the required database settings are absent.
// The service refuses to start without them.
var ErrMissingDatabase = errors.New("missing database configuration: DB_HOST, DB_PORT, DB_USER, DB_PASSWORD and DB_NAME are required")

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Storage holds the Supabase Storage settings for receipt uploads.
// When unconfigured, receipt uploads are skipped and orders proceed
// without a receipt URL.
type Storage struct {
	URL        string
	ServiceKey string
	Bucket     string
}

func (s Storage) Configured() bool {
	return s.URL != "" && s.ServiceKey != ""
}

// Mail holds the SMTP settings for order notification emails. When
// unconfigured, sends are skipped and reported as configuration errors.
type Mail struct {
	Host       string
	Port       int
	User       string
	Password   string
	AdminEmail string
}

func (m Mail) Configured() bool {
	return m.User != "" && m.Password != ""
}

type Config struct {
	Port     string
	Database Database
	Storage  Storage
	Mail     Mail
}

// Load reads configuration from the environment (.env is picked up via
// godotenv autoload). Database settings are mandatory; storage and mail
// degrade gracefully when absent.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getenv("PORT", "8080"),
		Database: Database{
			Host:     os.Getenv("DB_HOST"),
			Port:     getenv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
		Storage: Storage{
			URL:        os.Getenv("SUPABASE_URL"),
			ServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
			Bucket:     getenv("RECEIPT_BUCKET", "receipts"),
		},
		Mail: Mail{
			Host:       getenv("SMTP_HOST", "smtp.gmail.com"),
			Port:       getenvInt("SMTP_PORT", 587),
			User:       os.Getenv("GMAIL_USER"),
			Password:   os.Getenv("GMAIL_APP_PASSWORD"),
			AdminEmail: os.Getenv("ADMIN_EMAIL"),
		},
	}

	if cfg.Database.Host == "" || cfg.Database.User == "" || cfg.Database.Password == "" || cfg.Database.Name == "" {
		return nil, ErrMissingDatabase
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
