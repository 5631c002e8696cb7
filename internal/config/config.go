package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 服务配置；来源 config.yaml + TGM_ 环境变量
type Config struct {
	Server struct {
		Addr string `mapstructure:"addr" validate:"required"`
		Mode string `mapstructure:"mode" validate:"oneof=debug release test"`
	} `mapstructure:"server"`

	Origin struct {
		BaseURL    string        `mapstructure:"base_url" validate:"required,url"`
		Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
		RatePerSec float64       `mapstructure:"rate_per_sec" validate:"gt=0"`
		Burst      int           `mapstructure:"burst" validate:"gt=0"`
	} `mapstructure:"origin"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Archive struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"archive"`

	Refresh struct {
		Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
	} `mapstructure:"refresh"`

	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`

	Sentry struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"sentry"`

	Tracing struct {
		Endpoint    string `mapstructure:"endpoint"`
		ServiceName string `mapstructure:"service_name"`
	} `mapstructure:"tracing"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

// Load 读取配置；path 为空时在 ./ 和 ./configs 下找 config.yaml
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}
	v.SetEnvPrefix("TGM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件可选，环境变量可以提供全部配置
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("origin.timeout", 10*time.Second)
	v.SetDefault("origin.rate_per_sec", 20.0)
	v.SetDefault("origin.burst", 10)
	v.SetDefault("refresh.interval", 5*time.Minute)
	v.SetDefault("tracing.service_name", "tg-mirror")
	v.SetDefault("log.level", "info")
}
