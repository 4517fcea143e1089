package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration (pipeline result cache).
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`

	// Reference data and upload storage.
	DataDir   string `mapstructure:"DATA_DIR"`
	UploadDir string `mapstructure:"UPLOAD_DIR"`

	// Upload constraints and caching.
	MaxUploadSizeMB     int `mapstructure:"MAX_UPLOAD_SIZE_MB"`
	UploadRetentionHrs  int `mapstructure:"UPLOAD_RETENTION_HOURS"`
	SessionCacheTTLMins int `mapstructure:"SESSION_CACHE_TTL_MINUTES"`

	// Pharmacy matching.
	MaxSearchRadiusKm float64 `mapstructure:"MAX_SEARCH_RADIUS_KM"`
	DeliverySpeedKmph float64 `mapstructure:"DELIVERY_SPEED_KMPH"`
	BaseDeliveryFee   float64 `mapstructure:"BASE_DELIVERY_FEE"`
	PerKmCharge       float64 `mapstructure:"PER_KM_CHARGE"`

	// Default location applied when pincode resolution fails (Mumbai).
	DefaultPincode string  `mapstructure:"DEFAULT_PINCODE"`
	DefaultCity    string  `mapstructure:"DEFAULT_CITY"`
	DefaultLat     float64 `mapstructure:"DEFAULT_LAT"`
	DefaultLon     float64 `mapstructure:"DEFAULT_LON"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("DATA_DIR", "./data")
	viper.SetDefault("UPLOAD_DIR", "./uploads")
	viper.SetDefault("MAX_UPLOAD_SIZE_MB", 10)
	viper.SetDefault("UPLOAD_RETENTION_HOURS", 24)
	viper.SetDefault("SESSION_CACHE_TTL_MINUTES", 30)
	viper.SetDefault("MAX_SEARCH_RADIUS_KM", 25.0)
	viper.SetDefault("DELIVERY_SPEED_KMPH", 30.0)
	viper.SetDefault("BASE_DELIVERY_FEE", 25.0)
	viper.SetDefault("PER_KM_CHARGE", 5.0)
	viper.SetDefault("DEFAULT_PINCODE", "400001")
	viper.SetDefault("DEFAULT_CITY", "Mumbai")
	viper.SetDefault("DEFAULT_LAT", 19.0760)
	viper.SetDefault("DEFAULT_LON", 72.8777)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
