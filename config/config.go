package config

import (
	"strings"

	"github.com/spf13/viper"
)

// DefaultJWTSecret is the development fallback signing secret. Deployments
// must override it via JWT_SECRET.
const DefaultJWTSecret = "arena-dev-secret"

type Config struct {
	Port     int    `mapstructure:"PORT"`
	DBType   string `mapstructure:"DB_TYPE"` // sqlite, postgres, mysql
	DSN      string `mapstructure:"DSN"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	// OTPDiscloseFallback echoes the raw code in the HTTP response when mail
	// delivery failed or was skipped.
	OTPDiscloseFallback bool `mapstructure:"OTP_DISCLOSE_FALLBACK"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("DB_TYPE", "sqlite")
	viper.SetDefault("DSN", "arena-auth.db")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", DefaultJWTSecret)
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("SMTP_FROM", "")
	viper.SetDefault("OTP_DISCLOSE_FALLBACK", true)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
