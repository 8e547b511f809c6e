package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"5000"`

	ArxivBaseURL        string `envconfig:"ARXIV_BASE_URL" default:"https://export.arxiv.org/api/query"`
	ArxivMaxResults     int    `envconfig:"ARXIV_MAX_RESULTS" default:"5"`
	ArxivTimeoutSeconds int    `envconfig:"ARXIV_TIMEOUT_SECONDS" default:"20"`

	GeminiBaseURL        string  `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1"`
	GeminiModel          string  `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	GeminiAPIKey         string  `envconfig:"GEMINI_API_KEY" required:"true"`
	GeminiTimeoutSeconds int     `envconfig:"GEMINI_TIMEOUT_SECONDS" default:"60"`
	GeminiTemperature    float64 `envconfig:"GEMINI_TEMPERATURE" default:"0.4"`

	// S3-Archiv für hochgeladene PDFs; leer lassen, um das Archiv zu deaktivieren.
	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION"`
	S3Bucket string `envconfig:"S3_BUCKET"`

	UploadMaxBytes int64 `envconfig:"UPLOAD_MAX_BYTES" default:"10485760"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// S3Enabled meldet, ob das optionale PDF-Archiv konfiguriert ist.
func (c *Config) S3Enabled() bool {
	return c.S3Key != "" && c.S3Secret != "" && c.S3URL != "" && c.S3Region != "" && c.S3Bucket != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
