package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Detection DetectionConfig
	WhatsApp  WhatsAppConfig
	Storage   StorageConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

type DatabaseConfig struct {
	Host              string
	Port              string
	User              string
	Password          string
	DBName            string
	SSLMode           string
	MaxConns          int32
	// MinConns connections are kept open so a proof arriving after a quiet
	// period does not wait on a dial.
	MinConns          int32
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
}

// DetectionConfig holds defaults for the duplicate detector. Both values
// can be overridden per call.
type DetectionConfig struct {
	HammingThreshold int
	RetentionAge     time.Duration
}

type WhatsAppConfig struct {
	APIURL        string
	APIVersion    string
	PhoneNumberID string
	AccessToken   string
	Timeout       time.Duration
}

// Enabled reports whether outbound messages can be sent.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

type StorageConfig struct {
	UploadDir string
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work the same way
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	bodyLimitMB, _ := strconv.Atoi(getEnv("SERVER_BODY_LIMIT_MB", "16"))
	maxConns, _ := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	minConns, _ := strconv.Atoi(getEnv("DB_MIN_CONNS", "2"))
	maxIdle, _ := strconv.Atoi(getEnv("DB_MAX_CONN_IDLE_SECONDS", "300"))
	healthCheck, _ := strconv.Atoi(getEnv("DB_HEALTH_CHECK_SECONDS", "30"))
	connectTimeout, _ := strconv.Atoi(getEnv("DB_CONNECT_TIMEOUT_SECONDS", "5"))
	threshold, err := strconv.Atoi(getEnv("DETECTION_HAMMING_THRESHOLD", "5"))
	if err != nil || threshold < 0 {
		threshold = 5
	}
	retentionDays, err := strconv.Atoi(getEnv("DETECTION_RETENTION_DAYS", "90"))
	if err != nil || retentionDays <= 0 {
		retentionDays = 90
	}
	waTimeout, _ := strconv.Atoi(getEnv("WHATSAPP_TIMEOUT_SECONDS", "15"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
			BodyLimit:    bodyLimitMB * 1024 * 1024,
		},
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnv("DB_PORT", "5432"),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "whatsapp_fx"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(maxConns),
			MinConns:          int32(minConns),
			MaxConnIdleTime:   time.Duration(maxIdle) * time.Second,
			HealthCheckPeriod: time.Duration(healthCheck) * time.Second,
			ConnectTimeout:    time.Duration(connectTimeout) * time.Second,
		},
		Detection: DetectionConfig{
			HammingThreshold: threshold,
			RetentionAge:     time.Duration(retentionDays) * 24 * time.Hour,
		},
		WhatsApp: WhatsAppConfig{
			APIURL:        getEnv("WHATSAPP_API_URL", "https://graph.facebook.com"),
			APIVersion:    getEnv("WHATSAPP_API_VERSION", "v21.0"),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			Timeout:       time.Duration(waTimeout) * time.Second,
		},
		Storage: StorageConfig{
			UploadDir: getEnv("UPLOAD_DIR", "uploads"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
