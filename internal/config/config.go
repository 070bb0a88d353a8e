package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	JWT        JWTConfig
	Admin      AdminConfig
	Properties PropertiesConfig
	LogLevel   string
	LogFormat  string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string
	AllowedHosts    []string
	ShutdownSeconds int
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int
}

// AdminConfig holds the single operator account allowed to trigger cycles
type AdminConfig struct {
	Username     string
	PasswordHash string
}

// PropertiesConfig points at the store/batch tunables file
type PropertiesConfig struct {
	Path string
}

// Load loads configuration from a .env file, environment variables and config files.
// configPath may be empty, in which case config.yaml is looked up in . and ./config.
func Load(configPath string) (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix("RAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the platform sets PORT and ALLOWED_HOSTS without our prefix
	_ = v.BindEnv("Server.Port", "RAS_SERVER_PORT", "PORT")
	_ = v.BindEnv("Server.AllowedHosts", "RAS_SERVER_ALLOWEDHOSTS", "ALLOWED_HOSTS")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	v.SetDefault("Server.ShutdownSeconds", 5)
	v.SetDefault("JWT.Secret", "")
	v.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	v.SetDefault("Admin.Username", "admin")
	v.SetDefault("Admin.PasswordHash", "")
	v.SetDefault("Properties.Path", "ras.properties")
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", "json")
}
