package internal

import (
	"fmt"

	"github.com/spf13/viper"
)

type PagebufConfig struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		Workdir  string `mapstructure:"workdir"`
		PageSize int    `mapstructure:"page_size"`
		PoolSize int    `mapstructure:"pool_size"`
	} `mapstructure:"storage"`

	Server struct {
		MetricsPort int  `mapstructure:"metrics_port"`
		Debug       bool `mapstructure:"debug"`
	} `mapstructure:"server"`
}

func LoadConfig(path string) (*PagebufConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("app_name", "pagebuf")
	v.SetDefault("storage.workdir", "./data")
	v.SetDefault("storage.page_size", 8192)
	v.SetDefault("storage.pool_size", 128)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg PagebufConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
