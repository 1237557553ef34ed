package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Portal   PortalConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type PortalConfig struct {
	BaseURL       string
	Username      string
	Password      string
	MeasurementID string // GA4 measurement id used for the synthesized analytics cookies
	Timezone      string
}

type WorkerConfig struct {
	FetchInterval time.Duration
	HTTPTimeout   time.Duration
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("PORTAL_TIMEZONE", "Asia/Baku")
	viper.SetDefault("GA_MEASUREMENT_ID", "6YSDZBZ6HX")
	viper.SetDefault("FETCH_INTERVAL", "5s")
	viper.SetDefault("HTTP_TIMEOUT", "30s")

	interval, err := time.ParseDuration(viper.GetString("FETCH_INTERVAL"))
	if err != nil {
		interval = 5 * time.Second
	}
	httpTimeout, err := time.ParseDuration(viper.GetString("HTTP_TIMEOUT"))
	if err != nil {
		httpTimeout = 30 * time.Second
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Portal: PortalConfig{
			BaseURL:       viper.GetString("PORTAL_BASE_URL"),
			Username:      viper.GetString("PORTAL_USERNAME"),
			Password:      viper.GetString("PORTAL_PASSWORD"),
			MeasurementID: viper.GetString("GA_MEASUREMENT_ID"),
			Timezone:      viper.GetString("PORTAL_TIMEZONE"),
		},
		Worker: WorkerConfig{
			FetchInterval: interval,
			HTTPTimeout:   httpTimeout,
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.Portal.BaseURL == "" {
		log.Println("WARNING: PORTAL_BASE_URL is not set")
	}
	if cfg.Portal.Username == "" || cfg.Portal.Password == "" {
		log.Println("WARNING: portal credentials are not set")
	}

	return cfg, nil
}

// LoadDatabaseOnly loads just the database section, for bootstrap tooling.
func LoadDatabaseOnly() (*DatabaseConfig, error) {
	_ = godotenv.Load()
	viper.AutomaticEnv()

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")

	return &DatabaseConfig{
		Host:    viper.GetString("DB_HOST"),
		Port:    viper.GetString("DB_PORT"),
		Name:    viper.GetString("DB_NAME"),
		User:    viper.GetString("DB_USER"),
		Pass:    viper.GetString("DB_PASS"),
		Charset: viper.GetString("DB_CHARSET"),
	}, nil
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
