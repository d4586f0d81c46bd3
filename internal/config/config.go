package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	OTP      OTPConfig
	Lottery  LotteryConfig
	SMS      SMSConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
	AdminAPIKey  string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret           string
	AccessExpiresIn  int // seconds
	RefreshExpiresIn int // seconds
}

// OTPConfig holds OTP issuance and verification configuration
type OTPConfig struct {
	CodeLength       int
	ExpiryMinutes    int
	RateLimitCount   int
	RateLimitMinutes int
}

// LotteryConfig holds lottery-specific configuration
type LotteryConfig struct {
	WinnersCount     int
	Timezone         string
	SchedulerEnabled bool
	RecentWinDays    int
}

// SMSConfig holds KavehNegar SMS gateway configuration
type SMSConfig struct {
	BaseURL        string
	APIKey         string
	OTPTemplate    string
	WinnerTemplate string
	Mock           bool
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// A .env file is optional; environment variables win either way
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "lottery")
	viper.SetDefault("JWT.AccessExpiresIn", 60*60)          // 1 hour
	viper.SetDefault("JWT.RefreshExpiresIn", 7*24*60*60)    // 7 days
	viper.SetDefault("OTP.CodeLength", 6)
	viper.SetDefault("OTP.ExpiryMinutes", 5)
	viper.SetDefault("OTP.RateLimitCount", 3)
	viper.SetDefault("OTP.RateLimitMinutes", 10)
	viper.SetDefault("Lottery.WinnersCount", 8)
	viper.SetDefault("Lottery.Timezone", "Asia/Tehran")
	viper.SetDefault("Lottery.SchedulerEnabled", false)
	viper.SetDefault("Lottery.RecentWinDays", 180)
	viper.SetDefault("SMS.BaseURL", "https://api.kavenegar.com/v1")
	viper.SetDefault("SMS.OTPTemplate", "otp-code")
	viper.SetDefault("SMS.WinnerTemplate", "lottery-winner")
	viper.SetDefault("SMS.Mock", true)
	viper.SetDefault("LogLevel", "info")
}
