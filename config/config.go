package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort       string        `mapstructure:"HTTPPort"`
		MetricsPort    string        `mapstructure:"metricsPort"`
		Timeout        time.Duration `mapstructure:"HTTPTimeout"`
		AllowedOrigins []string      `mapstructure:"allowedOrigins"`
	} `mapstructure:"server"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			Password string `mapstructure:"password"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
		Redis struct {
			Host      string        `mapstructure:"host"`
			Port      string        `mapstructure:"port"`
			Password  string        `mapstructure:"password"`
			DB        int           `mapstructure:"db"`
			KeyPrefix string        `mapstructure:"keyPrefix"`
			TTL       time.Duration `mapstructure:"ttl"`
			Timeout   time.Duration `mapstructure:"timeout"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	JWT struct {
		SecretKey string        `mapstructure:"secretKey"`
		Issuer    string        `mapstructure:"issuer"`
		ExpiresIn time.Duration `mapstructure:"expiresIn"`
	} `mapstructure:"jwt"`
	Cookie struct {
		Name     string        `mapstructure:"name"`
		Secure   bool          `mapstructure:"secure"`
		SameSite string        `mapstructure:"sameSite"`
		MaxAge   time.Duration `mapstructure:"maxAge"`
	} `mapstructure:"cookie"`
	Gateway struct {
		URL                string        `mapstructure:"url"`
		SystemToken        string        `mapstructure:"systemToken"`
		Timeout            time.Duration `mapstructure:"timeout"`
		InsecureSkipVerify bool          `mapstructure:"insecureSkipVerify"`
		Email              struct {
			Type    string `mapstructure:"type"`
			Subject string `mapstructure:"subject"`
		} `mapstructure:"email"`
	} `mapstructure:"gateway"`
	Admin AdminConfig `mapstructure:"admin"`
}

// AdminConfig seeds the bootstrap administrator account.
type AdminConfig struct {
	FirstName string `mapstructure:"firstName"`
	LastName  string `mapstructure:"lastName"`
	Username  string `mapstructure:"username"`
	Email     string `mapstructure:"email"`
	Password  string `mapstructure:"password"`
}

// InitConfig loads the application config from file when present, falling
// back to the embedded defaults. Environment variables override file values
// (e.g. AUTH_JWT_SECRETKEY, AUTH_REPOSITORIES_POSTGRES_PASSWORD).
func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix("AUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return config, nil
}
