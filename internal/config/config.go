package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Upload  UploadConfig  `yaml:"upload"`
	OCR     OCRConfig     `yaml:"ocr"`
	Mail    MailConfig    `yaml:"mail"`
	Queue   QueueConfig   `yaml:"queue"`
	Janitor JanitorConfig `yaml:"janitor"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr               string   `yaml:"addr"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend"` // csv, postgres or sqlite
	CSVFile     string `yaml:"csv_file"`
	Driver      string `yaml:"driver"` // pgx or postgres, ignored for sqlite
	DatabaseURL string `yaml:"database_url"`
}

type UploadConfig struct {
	Dir        string `yaml:"dir"`
	MaxBytes   int64  `yaml:"max_bytes"`
	ExcerptLen int    `yaml:"excerpt_len"`
}

type OCRConfig struct {
	Engine            string `yaml:"engine"` // gosseract or cli
	Language          string `yaml:"language"`
	TessdataPrefix    string `yaml:"tessdata_prefix"`
	PSM               int    `yaml:"psm"`
	TesseractBin      string `yaml:"tesseract_bin"`
	PdftotextBin      string `yaml:"pdftotext_bin"`
	PdftotextFallback bool   `yaml:"pdftotext_fallback"`
}

type MailConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
}

type QueueConfig struct {
	RabbitMQURL string `yaml:"rabbitmq_url"` // empty sends workflow emails inline
}

type JanitorConfig struct {
	Interval time.Duration `yaml:"interval"`
	MaxAge   time.Duration `yaml:"max_age"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:               ":8080",
			CORSAllowedOrigins: []string{"*"},
			RateLimitPerMinute: 30,
		},
		Store: StoreConfig{
			Backend: "csv",
			CSVFile: "leads.csv",
			Driver:  "pgx",
		},
		Upload: UploadConfig{
			MaxBytes:   10 << 20,
			ExcerptLen: 500,
		},
		OCR: OCRConfig{
			Engine:            "gosseract",
			Language:          "eng",
			PSM:               3,
			TesseractBin:      "tesseract",
			PdftotextBin:      "pdftotext",
			PdftotextFallback: true,
		},
		Mail: MailConfig{Port: 587},
		Janitor: JanitorConfig{
			Interval: 10 * time.Minute,
			MaxAge:   time.Hour,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads .env, then the optional YAML file named by LEADFLOW_CONFIG, then the
// environment. Later sources win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("LEADFLOW_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	addr := cfg.Server.Addr
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	cfg.Server.Addr = getEnv("HTTP_ADDR", addr)
	cfg.Server.CORSAllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", cfg.Server.CORSAllowedOrigins)
	cfg.Server.RateLimitPerMinute = getEnvAsInt("RATE_LIMIT_PER_MINUTE", cfg.Server.RateLimitPerMinute)

	cfg.Store.Backend = strings.ToLower(getEnv("STORE_BACKEND", cfg.Store.Backend))
	cfg.Store.CSVFile = getEnv("CSV_FILE", cfg.Store.CSVFile)
	cfg.Store.Driver = getEnv("DB_DRIVER", cfg.Store.Driver)
	cfg.Store.DatabaseURL = getEnv("DATABASE_URL", cfg.Store.DatabaseURL)

	cfg.Upload.Dir = getEnv("UPLOAD_DIR", cfg.Upload.Dir)
	cfg.Upload.MaxBytes = getEnvAsInt64("MAX_UPLOAD_BYTES", cfg.Upload.MaxBytes)
	cfg.Upload.ExcerptLen = getEnvAsInt("TEXT_EXCERPT_LEN", cfg.Upload.ExcerptLen)

	cfg.OCR.Engine = strings.ToLower(getEnv("OCR_ENGINE", cfg.OCR.Engine))
	cfg.OCR.Language = getEnv("OCR_LANGUAGE", cfg.OCR.Language)
	cfg.OCR.TessdataPrefix = getEnv("TESSDATA_PREFIX", cfg.OCR.TessdataPrefix)
	cfg.OCR.PSM = getEnvAsInt("OCR_PSM", cfg.OCR.PSM)
	cfg.OCR.TesseractBin = getEnv("TESSERACT_BIN", cfg.OCR.TesseractBin)
	cfg.OCR.PdftotextBin = getEnv("PDFTOTEXT_BIN", cfg.OCR.PdftotextBin)
	cfg.OCR.PdftotextFallback = getEnvAsBool("PDFTOTEXT_FALLBACK", cfg.OCR.PdftotextFallback)

	cfg.Mail.Host = getEnv("MAIL_HOST", cfg.Mail.Host)
	cfg.Mail.Port = getEnvAsInt("MAIL_PORT", cfg.Mail.Port)
	cfg.Mail.User = getEnv("MAIL_USER", cfg.Mail.User)
	cfg.Mail.Pass = getEnv("MAIL_PASS", cfg.Mail.Pass)
	cfg.Mail.From = getEnv("MAIL_FROM", cfg.Mail.From)

	cfg.Queue.RabbitMQURL = getEnv("RABBITMQ_URL", cfg.Queue.RabbitMQURL)

	cfg.Janitor.Interval = getEnvAsDuration("JANITOR_INTERVAL", cfg.Janitor.Interval)
	cfg.Janitor.MaxAge = getEnvAsDuration("JANITOR_MAX_AGE", cfg.Janitor.MaxAge)

	cfg.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(getEnv("LOG_FORMAT", cfg.Log.Format))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case "csv":
		if c.Store.CSVFile == "" {
			errs = append(errs, errors.New("CSV_FILE is required for the csv store"))
		}
	case "postgres":
		if c.Store.Driver != "pgx" && c.Store.Driver != "postgres" {
			errs = append(errs, fmt.Errorf("DB_DRIVER must be pgx or postgres, got %q", c.Store.Driver))
		}
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case "sqlite":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend))
	}

	if c.OCR.Engine != "gosseract" && c.OCR.Engine != "cli" {
		errs = append(errs, fmt.Errorf("OCR_ENGINE must be gosseract or cli, got %q", c.OCR.Engine))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// DBDriver is the database/sql driver name for the configured store.
func (c *Config) DBDriver() string {
	if c.Store.Backend == "sqlite" {
		return "sqlite"
	}
	return c.Store.Driver
}

// MailConfigured reports whether outbound email can be attempted.
func (c *Config) MailConfigured() bool {
	return c.Mail.Host != "" && c.Mail.Port > 0 && (c.Mail.From != "" || c.Mail.User != "")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
