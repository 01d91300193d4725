package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"subleet-admin/pkg/constants"
)

var GlobalConfig *Config

// ErrConfiguration 配置缺失或不安全, 必须阻止启动
var ErrConfiguration = errors.New("configuration error")

// Config 全局配置
type Config struct {
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Database     DatabaseConfig     `mapstructure:"database" yaml:"database"`
	Redis        RedisConfig        `mapstructure:"redis" yaml:"redis"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	Auth         AuthConfig         `mapstructure:"auth" yaml:"auth"`
	Crypto       CryptoConfig       `mapstructure:"crypto" yaml:"crypto"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
	AIPlatform   AIPlatformConfig   `mapstructure:"ai_platform" yaml:"ai_platform"`
	EdgeHost     EdgeHostConfig     `mapstructure:"edge_host" yaml:"edge_host"`
	Provision    ProvisionConfig    `mapstructure:"provision" yaml:"provision"`
	Reconcile    ReconcileConfig    `mapstructure:"reconcile" yaml:"reconcile"`
	Notification NotificationConfig `mapstructure:"notification" yaml:"notification"`
	Metrics      MetricsConfig      `mapstructure:"metrics" yaml:"metrics"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name         string   `mapstructure:"name" yaml:"name"`
	Host         string   `mapstructure:"host" yaml:"host"`
	Port         int      `mapstructure:"port" yaml:"port"`
	Mode         string   `mapstructure:"mode" yaml:"mode"` // debug, release
	AllowOrigins []string `mapstructure:"allow_origins" yaml:"allow_origins"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" yaml:"driver"`
	Host            string `mapstructure:"host" yaml:"host"`
	Port            int    `mapstructure:"port" yaml:"port"`
	Database        string `mapstructure:"database" yaml:"database"`
	Username        string `mapstructure:"username" yaml:"username"`
	Password        string `mapstructure:"password" yaml:"password"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime" yaml:"conn_max_lifetime"` // 秒
	LogLevel        string `mapstructure:"log_level" yaml:"log_level"`                 // SQL日志级别: silent/error/warn/info
	AutoMigrate     bool   `mapstructure:"auto_migrate" yaml:"auto_migrate"`
}

// RedisConfig Redis配置, addr 为空时关闭缓存
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

// CacheConfig 读缓存配置
type CacheConfig struct {
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
	TTL    int    `mapstructure:"ttl" yaml:"ttl"` // 秒
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWT JWTConfig `mapstructure:"jwt" yaml:"jwt"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret             string `mapstructure:"secret" yaml:"secret"`
	AccessTokenExpire  int    `mapstructure:"access_token_expire" yaml:"access_token_expire"`   // 秒
	RefreshTokenExpire int    `mapstructure:"refresh_token_expire" yaml:"refresh_token_expire"` // 秒
}

// CryptoConfig 加密配置
type CryptoConfig struct {
	EncryptionSecret string `mapstructure:"encryption_secret" yaml:"encryption_secret"` // 至少32个字符
	KeyPrefix        string `mapstructure:"key_prefix" yaml:"key_prefix"`
	KeyBytes         int    `mapstructure:"key_bytes" yaml:"key_bytes"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format   string `mapstructure:"format" yaml:"format"` // json, console
	Output   string `mapstructure:"output" yaml:"output"` // stdout, file
	FilePath string `mapstructure:"file_path" yaml:"file_path"`
}

// AIPlatformConfig AI 资源提供方 (向量库 + 助手)
type AIPlatformConfig struct {
	BaseURL         string   `mapstructure:"base_url" yaml:"base_url"`
	APIKey          string   `mapstructure:"api_key" yaml:"api_key"`
	DefaultModel    string   `mapstructure:"default_model" yaml:"default_model"`
	SupportedModels []string `mapstructure:"supported_models" yaml:"supported_models"`
	Instructions    string   `mapstructure:"instructions" yaml:"instructions"`
	Timeout         string   `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries      int      `mapstructure:"max_retries" yaml:"max_retries"`
}

// EdgeHostConfig 函数部署平台
type EdgeHostConfig struct {
	BaseURL     string `mapstructure:"base_url" yaml:"base_url"`
	ProjectRef  string `mapstructure:"project_ref" yaml:"project_ref"`
	AccessToken string `mapstructure:"access_token" yaml:"access_token"`
	SlugPrefix  string `mapstructure:"slug_prefix" yaml:"slug_prefix"`
	Timeout     string `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries  int    `mapstructure:"max_retries" yaml:"max_retries"`
}

// ProvisionConfig 开通流程配置
type ProvisionConfig struct {
	MaxProjectsPerOwner int    `mapstructure:"max_projects_per_owner" yaml:"max_projects_per_owner"`
	StepTimeout         string `mapstructure:"step_timeout" yaml:"step_timeout"`
}

// ReconcileConfig 部署补偿巡检
type ReconcileConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Cron        string `mapstructure:"cron" yaml:"cron"` // 秒 分 时 日 月 周
	MaxAttempts int    `mapstructure:"max_attempts" yaml:"max_attempts"`
	BatchSize   int    `mapstructure:"batch_size" yaml:"batch_size"`
}

// NotificationConfig 通知配置
type NotificationConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Provider    string `mapstructure:"provider" yaml:"provider"` // lark, log
	LarkWebhook string `mapstructure:"lark_webhook" yaml:"lark_webhook"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// Load 加载配置
// .env 先于配置文件加载, 环境变量按 "a.b" -> "A_B" 覆盖配置项
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("读取 .env 失败: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	GlobalConfig = config

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "subleet-admin")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 3600)
	v.SetDefault("cache.prefix", "subleet")
	v.SetDefault("cache.ttl", 60)
	v.SetDefault("auth.jwt.access_token_expire", 7200)
	v.SetDefault("auth.jwt.refresh_token_expire", 604800)
	v.SetDefault("crypto.key_prefix", constants.DefaultKeyPrefix)
	v.SetDefault("crypto.key_bytes", constants.DefaultKeyBytes)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("ai_platform.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai_platform.default_model", constants.DefaultAssistantModel)
	v.SetDefault("ai_platform.supported_models", []string{"gpt-4.1-nano", "gpt-4.1-mini", "gpt-4o-mini"})
	v.SetDefault("ai_platform.timeout", "30s")
	v.SetDefault("ai_platform.max_retries", 3)
	v.SetDefault("edge_host.base_url", "https://api.supabase.com")
	v.SetDefault("edge_host.slug_prefix", "subleet")
	v.SetDefault("edge_host.timeout", "60s")
	v.SetDefault("edge_host.max_retries", 3)
	v.SetDefault("provision.max_projects_per_owner", constants.DefaultMaxProjectsOwner)
	v.SetDefault("provision.step_timeout", "90s")
	v.SetDefault("reconcile.enabled", true)
	v.SetDefault("reconcile.cron", "0 */5 * * * *")
	v.SetDefault("reconcile.max_attempts", 5)
	v.SetDefault("reconcile.batch_size", 20)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate 启动前校验, 返回的错误都包装了 ErrConfiguration
func (c *Config) Validate() error {
	var problems []string
	if len(c.Crypto.EncryptionSecret) < constants.MinEncryptionSecretLen {
		problems = append(problems, fmt.Sprintf("crypto.encryption_secret 至少需要 %d 个字符", constants.MinEncryptionSecretLen))
	}
	if c.Crypto.KeyBytes < 16 {
		problems = append(problems, "crypto.key_bytes 不能小于 16")
	}
	if c.EdgeHost.AccessToken == "" {
		problems = append(problems, "edge_host.access_token 未配置")
	}
	if c.EdgeHost.ProjectRef == "" {
		problems = append(problems, "edge_host.project_ref 未配置")
	}
	if c.AIPlatform.APIKey == "" {
		problems = append(problems, "ai_platform.api_key 未配置")
	}
	if c.Auth.JWT.Secret == "" {
		problems = append(problems, "auth.jwt.secret 未配置")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}

// GetDSN 获取数据库DSN
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// IsModelSupported 助手模型白名单
func (c *AIPlatformConfig) IsModelSupported(model string) bool {
	for _, m := range c.SupportedModels {
		if m == model {
			return true
		}
	}
	return false
}

const redacted = "******"

// Redacted 返回脱敏后的 YAML, 用于 -print-config
func (c *Config) Redacted() ([]byte, error) {
	cp := *c
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}
	mask(&cp.Database.Password)
	mask(&cp.Redis.Password)
	mask(&cp.Auth.JWT.Secret)
	mask(&cp.Crypto.EncryptionSecret)
	mask(&cp.AIPlatform.APIKey)
	mask(&cp.EdgeHost.AccessToken)
	mask(&cp.Notification.LarkWebhook)
	return yaml.Marshal(&cp)
}
