package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Gemini   GeminiConfig
	OCR      OCRConfig
	Pipeline PipelineConfig
	Push     PushConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type OCRConfig struct {
	// Enabled toggles the tesseract side channel. Extraction works without
	// it; the raw text feeds the confidence scorer and the model prompt.
	Enabled  bool
	Language string
}

type PipelineConfig struct {
	// ScoreOnUpload controls whether a confidence score is computed per
	// upload. When false every receipt is stored with confidence 0 and the
	// upload response reports status "processed".
	ScoreOnUpload bool
}

type PushConfig struct {
	Enabled bool
	URL     string
}

func Load() (*Config, error) {
	// Try to load .env from the working directory or the project root.
	// Absence is fine: plain environment variables work for Docker/K8s.
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	geminiTimeout, _ := strconv.Atoi(getEnv("GEMINI_TIMEOUT_SECONDS", "30"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "billsnap"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		Gemini: GeminiConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.0-flash-exp"),
			Timeout: time.Duration(geminiTimeout) * time.Second,
		},
		OCR: OCRConfig{
			Enabled:  getEnv("OCR_ENABLED", "true") == "true",
			Language: getEnv("OCR_LANGUAGE", "eng"),
		},
		Pipeline: PipelineConfig{
			ScoreOnUpload: getEnv("PIPELINE_SCORE_ON_UPLOAD", "true") == "true",
		},
		Push: PushConfig{
			Enabled: getEnv("PUSH_ENABLED", "true") == "true",
			URL:     getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
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
