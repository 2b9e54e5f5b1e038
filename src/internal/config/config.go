package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API_BASE_URL        string `mapstructure:"API_BASE_URL"`
	API_TIMEOUT_SECONDS int    `mapstructure:"API_TIMEOUT_SECONDS"`
	PAGE_SIZE           int    `mapstructure:"PAGE_SIZE"`
	SESSION_TOKEN       string `mapstructure:"SESSION_TOKEN"`
	APP_ENV             string `mapstructure:"APP_ENV"`
}

// RequestTimeout returns the per-request deadline for backend calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API_TIMEOUT_SECONDS) * time.Second
}

func Loadconfig() (*Config, error) {
	config := &Config{}

	viper.AutomaticEnv()
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.SetDefault("API_TIMEOUT_SECONDS", 15)
	viper.SetDefault("PAGE_SIZE", 6)
	viper.SetDefault("APP_ENV", "local")

	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config File not found using environment variables")
		} else {
			return nil, fmt.Errorf("Failed to read config File :%w", err)
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("Failed to Unmarshal config :%w", err)
	}
	return config, nil
}
