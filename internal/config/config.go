package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/coding-shalabh/nexora-api-sub000/internal/adapter"
	"github.com/coding-shalabh/nexora-api-sub000/internal/ratelimit"
	"github.com/coding-shalabh/nexora-api-sub000/internal/sequence"
	"github.com/coding-shalabh/nexora-api-sub000/internal/service"
	"github.com/coding-shalabh/nexora-api-sub000/internal/usage"
	"github.com/coding-shalabh/nexora-api-sub000/pkg/mq"
	"github.com/coding-shalabh/nexora-api-sub000/pkg/mysql"
	"github.com/coding-shalabh/nexora-api-sub000/pkg/redis"
)

type Config struct {
	API       API              `mapstructure:"api"`
	Database  mysql.Config     `mapstructure:"database"`
	Redis     redis.Config     `mapstructure:"redis"`
	RabbitMQ  mq.Config        `mapstructure:"rabbitmq"`
	Adapter   adapter.Config   `mapstructure:"adapter"`
	Service   service.Config   `mapstructure:"service"`
	RateLimit ratelimit.Config `mapstructure:"ratelimit"`
	Usage     usage.Config     `mapstructure:"usage"`
	Sequence  sequence.Config  `mapstructure:"sequence"`
}

type API struct {
	Port string `mapstructure:"port"`
}

func Load() (cfg *Config, err error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath("./config")

	err = viper.ReadInConfig()
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
