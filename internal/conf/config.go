// Package conf 负责集中式配置加载：YAML 文件 + GRIDBRIDGE_ 前缀的环境变量覆盖。
// file: internal/conf/config.go
package conf

import (
	"GridBridge/internal/adapter/dialect"
	"GridBridge/internal/core/domain"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix 是环境变量前缀，e.g. GRIDBRIDGE_SERVER_PORT 覆盖 server.port
const EnvPrefix = "GRIDBRIDGE"

type ServerConfig struct {
	Port      int    `mapstructure:"port" validate:"min=1,max=65535"`
	GRPCPort  int    `mapstructure:"grpc_port" validate:"omitempty,min=1,max=65535"`
	LogLevel  string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
	PprofAddr string `mapstructure:"pprof_addr"`
}

// UserConfig 是配置文件中声明的登录用户，密码以 bcrypt 哈希保存。
type UserConfig struct {
	Name         string `mapstructure:"name" validate:"required"`
	PasswordHash string `mapstructure:"password_hash" validate:"required"`
	Role         string `mapstructure:"role" validate:"required,oneof=admin editor viewer"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret" validate:"required,min=16"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" validate:"min=1m"`
	Users     []UserConfig  `mapstructure:"users" validate:"dive"`
}

type RateLimitConfig struct {
	GlobalRate       float64       `mapstructure:"global_rate" validate:"gt=0"`
	GlobalBurst      int           `mapstructure:"global_burst" validate:"min=1"`
	IPRate           float64       `mapstructure:"ip_rate" validate:"gt=0"`
	IPBurst          int           `mapstructure:"ip_burst" validate:"min=1"`
	LoginMaxFailures int           `mapstructure:"login_max_failures" validate:"min=1"`
	LoginLockout     time.Duration `mapstructure:"login_lockout"`
}

type BridgeConfig struct {
	MaxPageSize     int `mapstructure:"max_page_size" validate:"min=1"`
	DefaultPageSize int `mapstructure:"default_page_size" validate:"min=1,ltefield=MaxPageSize"`
}

type SystemDBConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ConnectionConfig 描述一个业务数据库连接。
type ConnectionConfig struct {
	Name            string        `mapstructure:"name" json:"name" validate:"required"`
	Dialect         string        `mapstructure:"dialect" json:"dialect" validate:"required"`
	DSN             string        `mapstructure:"dsn" json:"-" validate:"required"`
	MaxOpen         int           `mapstructure:"max_open" json:"max_open"`
	MaxIdle         int           `mapstructure:"max_idle" json:"max_idle"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" json:"conn_max_lifetime"`
}

// Config 是完整的应用配置。
type Config struct {
	Server      ServerConfig            `mapstructure:"server"`
	Auth        AuthConfig              `mapstructure:"auth"`
	RateLimit   RateLimitConfig         `mapstructure:"rate_limit"`
	Bridge      BridgeConfig            `mapstructure:"bridge"`
	SystemDB    SystemDBConfig          `mapstructure:"system_db"`
	Connections []ConnectionConfig      `mapstructure:"connections" validate:"dive"`
	Grids       []domain.GridDefinition `mapstructure:"grids" validate:"dive"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 10224)
	v.SetDefault("server.grpc_port", 0)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.pprof_addr", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("rate_limit.global_rate", 10.0)
	v.SetDefault("rate_limit.global_burst", 30)
	v.SetDefault("rate_limit.ip_rate", 1.0)
	v.SetDefault("rate_limit.ip_burst", 20)
	v.SetDefault("rate_limit.login_max_failures", 5)
	v.SetDefault("rate_limit.login_lockout", 15*time.Minute)

	v.SetDefault("bridge.max_page_size", 2000)
	v.SetDefault("bridge.default_page_size", 50)

	v.SetDefault("system_db.path", "instance/gridbridge.db")
}

// Load 读取 path 指向的配置文件 (可为空)，叠加环境变量后校验。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件 '%s' 失败: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置到结构体失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate 检查结构体约束以及连接与表格之间的引用关系。
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	var errs []error
	conns := make(map[string]struct{}, len(c.Connections))
	for _, cc := range c.Connections {
		if _, dup := conns[cc.Name]; dup {
			errs = append(errs, fmt.Errorf("连接 '%s' 重复定义", cc.Name))
		}
		conns[cc.Name] = struct{}{}
		if _, err := dialect.Lookup(cc.Dialect); err != nil {
			errs = append(errs, fmt.Errorf("连接 '%s': %w", cc.Name, err))
		}
	}

	grids := make(map[string]struct{}, len(c.Grids))
	for i := range c.Grids {
		g := &c.Grids[i]
		if _, dup := grids[g.Name]; dup {
			errs = append(errs, fmt.Errorf("表格 '%s' 重复定义", g.Name))
		}
		grids[g.Name] = struct{}{}
		if _, ok := conns[g.Connection]; !ok {
			errs = append(errs, fmt.Errorf("表格 '%s' 引用了未定义的连接 '%s'", g.Name, g.Connection))
		}
		if _, err := g.FieldMap(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Connection 按名称查找连接配置。
func (c *Config) Connection(name string) (ConnectionConfig, bool) {
	for _, cc := range c.Connections {
		if cc.Name == name {
			return cc, true
		}
	}
	return ConnectionConfig{}, false
}
