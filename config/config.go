package config

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Email        EmailConfig        `mapstructure:"email"`
	Notification NotificationConfig `mapstructure:"notification"`
	Frontend     FrontendConfig     `mapstructure:"frontend"`
	Invitation   InvitationConfig   `mapstructure:"invitation"`
	Redis        RedisConfig        `mapstructure:"redis"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
}

// DatabaseConfig 数据库配置，driver 支持 mysql / postgres
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
	SSLMode  string `mapstructure:"sslmode"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	ExpireHours int           `mapstructure:"expire_hours"`
	ExpireTime  time.Duration `mapstructure:"-"`
}

// EmailConfig SMTP 邮件配置（notification.driver = smtp 时使用）
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// NotificationConfig 通知服务配置
type NotificationConfig struct {
	Driver               string        `mapstructure:"driver"`
	URL                  string        `mapstructure:"url"`
	TimeoutSeconds       int           `mapstructure:"timeout_seconds"`
	MaxAttempts          int           `mapstructure:"max_attempts"`
	RetryIntervalSeconds int           `mapstructure:"retry_interval_seconds"`
	Timeout              time.Duration `mapstructure:"-"`
	RetryInterval        time.Duration `mapstructure:"-"`
}

// FrontendConfig 前端地址，用于 CORS 和邀请链接
type FrontendConfig struct {
	URL string `mapstructure:"url"`
}

// InvitationConfig 邀请配置
type InvitationConfig struct {
	ExpireHours int           `mapstructure:"expire_hours"`
	TTL         time.Duration `mapstructure:"-"`
}

// RedisConfig 分析结果缓存，Addr 为空时不启用
type RedisConfig struct {
	Addr                string        `mapstructure:"addr"`
	Password            string        `mapstructure:"password"`
	DB                  int           `mapstructure:"db"`
	AnalyticsTTLSeconds int           `mapstructure:"analytics_ttl_seconds"`
	AnalyticsTTL        time.Duration `mapstructure:"-"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
)

// LoadConfig 加载配置
// 优先级: 环境变量 > 外部配置文件 > 嵌入的默认配置
// configPath: 可选的外部配置文件路径
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 首先加载嵌入的默认配置
	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("读取内置配置失败: %w", err)
	}
	log.Println("已加载内置默认配置")

	// 2. 尝试加载外部配置文件（可选，用于覆盖默认配置）
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			log.Printf("警告: 无法读取指定配置文件 %s: %v", configPath, err)
		} else {
			log.Printf("已合并外部配置文件: %s", configPath)
		}
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("/etc/walet")
		externalViper.AddConfigPath("$HOME/.walet")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				log.Printf("警告: 合并外部配置失败: %v", err)
			} else {
				log.Printf("已合并外部配置文件: %s", externalViper.ConfigFileUsed())
			}
		}
	}

	// 3. 环境变量覆盖，如 WALET_NOTIFICATION_URL
	v.SetEnvPrefix("WALET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.applyDefaults()

	GlobalConfig = &cfg
	return &cfg, nil
}

// applyDefaults 填充派生字段和缺省值
func (cfg *Config) applyDefaults() {
	if cfg.JWT.ExpireHours <= 0 {
		cfg.JWT.ExpireHours = 24
	}
	cfg.JWT.ExpireTime = time.Duration(cfg.JWT.ExpireHours) * time.Hour

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}

	if cfg.Notification.Driver == "" {
		cfg.Notification.Driver = "http"
	}
	if cfg.Notification.TimeoutSeconds <= 0 {
		cfg.Notification.TimeoutSeconds = 5
	}
	cfg.Notification.Timeout = time.Duration(cfg.Notification.TimeoutSeconds) * time.Second
	if cfg.Notification.MaxAttempts <= 0 {
		cfg.Notification.MaxAttempts = 5
	}
	if cfg.Notification.RetryIntervalSeconds <= 0 {
		cfg.Notification.RetryIntervalSeconds = 60
	}
	cfg.Notification.RetryInterval = time.Duration(cfg.Notification.RetryIntervalSeconds) * time.Second

	if cfg.Invitation.ExpireHours <= 0 {
		cfg.Invitation.ExpireHours = 72
	}
	cfg.Invitation.TTL = time.Duration(cfg.Invitation.ExpireHours) * time.Hour

	if cfg.Redis.AnalyticsTTLSeconds <= 0 {
		cfg.Redis.AnalyticsTTLSeconds = 60
	}
	cfg.Redis.AnalyticsTTL = time.Duration(cfg.Redis.AnalyticsTTLSeconds) * time.Second
}

// SafeErrorMessage 生产环境（release）返回 fallback，其余情况返回 err.Error()
func SafeErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if GlobalConfig != nil && GlobalConfig.Server.Mode == "release" {
		return fallback
	}
	return err.Error()
}

// PrintConfig 打印当前配置（隐藏敏感信息）
func PrintConfig() {
	if GlobalConfig == nil {
		return
	}
	log.Printf("当前配置:")
	log.Printf("  服务器: %s (模式: %s)", GlobalConfig.Server.Port, GlobalConfig.Server.Mode)
	log.Printf("  数据库: %s %s@%s:%s/%s",
		GlobalConfig.Database.Driver,
		GlobalConfig.Database.Username,
		GlobalConfig.Database.Host,
		GlobalConfig.Database.Port,
		GlobalConfig.Database.DBName)
	log.Printf("  通知服务: %s %s (超时 %s)",
		GlobalConfig.Notification.Driver,
		GlobalConfig.Notification.URL,
		GlobalConfig.Notification.Timeout)
	log.Printf("  前端地址: %s", GlobalConfig.Frontend.URL)
	log.Printf("  Redis 缓存: %v", GlobalConfig.Redis.Addr != "")
}
