// Package config 定义一次上传会话的配置。
// 配置在会话开始前构造一次（默认值 → 环境变量 → 命令行参数），之后只读。
package config

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/hwuu/ftpstorm/internal/remote"
)

// EnvPrefix 环境变量前缀，例如 FTPSTORM_FTP_SERVER
const EnvPrefix = "FTPSTORM_"

var ErrInvalidConfig = errors.New("invalid config")

// Config 会话配置
type Config struct {
	ArtifactsDir  string        `env:"ARTIFACTS,default=artifacts"`
	Host          string        `env:"FTP_SERVER,default=ftp01"`
	Port          int           `env:"PORT,default=0"` // 0 表示使用协议默认端口
	Protocol      string        `env:"PROTOCOL,default=ftp"`
	User          string        `env:"USER,default=Administrator"`
	Password      string        `env:"PASSWORD,default=lab"`
	NumberOfFiles int           `env:"NUMBER_OF_FILES,default=100"`
	MinSleep      int           `env:"MIN_SLEEP,default=3"` // 秒
	MaxSleep      int           `env:"MAX_SLEEP,default=5"` // 秒
	DialTimeout   time.Duration `env:"TIMEOUT,default=30s"`
	Seed          uint64        `env:"SEED"` // 0 表示按当前时间取种子
}

// Load 从 FTPSTORM_* 环境变量加载配置，未设置的字段取默认值
func Load(ctx context.Context) (Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom 从指定 Lookuper 加载配置（测试用 envconfig.MapLookuper）
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, lookuper),
	}); err != nil {
		return Config{}, fmt.Errorf("failed to load config from environment: %w", err)
	}
	return cfg, nil
}

// Validate 校验字段取值
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.ArtifactsDir) == "" {
		problems = append(problems, "artifacts directory is empty")
	}
	if strings.TrimSpace(c.Host) == "" {
		problems = append(problems, "server host is empty")
	}
	if c.User == "" {
		problems = append(problems, "user is empty")
	}
	if !slices.Contains(remote.Protocols(), strings.ToLower(c.Protocol)) {
		problems = append(problems, fmt.Sprintf("unsupported protocol %q", c.Protocol))
	}
	if c.Port < 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", c.Port))
	}
	if c.NumberOfFiles < 0 {
		problems = append(problems, fmt.Sprintf("number of files must be >= 0, got %d", c.NumberOfFiles))
	}
	if c.MinSleep < 0 {
		problems = append(problems, fmt.Sprintf("min sleep must be >= 0, got %d", c.MinSleep))
	}
	if c.MaxSleep < c.MinSleep {
		problems = append(problems, fmt.Sprintf("max sleep (%d) must be >= min sleep (%d)", c.MaxSleep, c.MinSleep))
	}
	if c.DialTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("timeout must be positive, got %s", c.DialTimeout))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Address 返回服务端 host:port
func (c Config) Address() string {
	return remote.Address(c.Host, c.Port, c.Protocol)
}

// SeedOrNow 返回配置的种子，未配置时使用当前时间
func (c Config) SeedOrNow() uint64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return uint64(time.Now().UnixNano())
}
