package server

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"ctfarena/game"
)

// DefaultConfigPath 未指定 --config 时尝试读取的位置（不存在则使用内置默认值）
const DefaultConfigPath = "configs/ctfarena.yaml"

// Config 服务端配置，来源优先级：环境变量 > YAML 文件 > 默认值
type Config struct {
	Addr           string        `yaml:"addr"`
	TickInterval   time.Duration `yaml:"tick_interval"`
	DefaultPlayers int           `yaml:"default_players"`
	Log            LogConfig     `yaml:"log"`
	CORS           CORSConfig    `yaml:"cors"`
	WS             WSConfig      `yaml:"ws"`
}

// LogConfig 日志输出与滚动策略
type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Console    bool   `yaml:"console"`
}

// CORSConfig 允许跨域访问的前端来源
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WSConfig WebSocket 连接参数
type WSConfig struct {
	ReadLimit  int64         `yaml:"read_limit"`
	PongWait   time.Duration `yaml:"pong_wait"`
	WriteWait  time.Duration `yaml:"write_wait"`
	SendBuffer int           `yaml:"send_buffer"`
}

// DefaultConfig 内置默认配置
func DefaultConfig() Config {
	return Config{
		Addr:           ":8000",
		TickInterval:   200 * time.Millisecond,
		DefaultPlayers: 4,
		Log: LogConfig{
			File:       "app.log",
			Level:      "debug",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Console:    true,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		},
		WS: WSConfig{
			ReadLimit:  1 << 20,
			PongWait:   60 * time.Second,
			WriteWait:  5 * time.Second,
			SendBuffer: 64,
		},
	}
}

// LoadConfig 读取配置
// path 为空时尝试 DefaultConfigPath；envFile 非空时先加载 .env 再应用 CTF_* 环境变量
func LoadConfig(path, envFile string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if data, err := os.ReadFile(DefaultConfigPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", DefaultConfigPath, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("CTF_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("CTF_TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: CTF_TICK_INTERVAL: %w", err)
		}
		cfg.TickInterval = d
	}
	if v := os.Getenv("CTF_DEFAULT_PLAYERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: CTF_DEFAULT_PLAYERS: %w", err)
		}
		cfg.DefaultPlayers = n
	}
	if v := os.Getenv("CTF_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v, ok := os.LookupEnv("CTF_LOG_FILE"); ok {
		cfg.Log.File = v
	}
	if v := os.Getenv("CTF_CORS_ORIGINS"); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate 检查配置取值，一次性报告全部问题
func (c Config) Validate() error {
	var err error
	if c.TickInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("config: tick_interval must be positive, got %s", c.TickInterval))
	}
	if !game.ValidPlayerCount(c.DefaultPlayers) {
		err = multierr.Append(err, fmt.Errorf("config: default_players: %w", game.ErrInvalidPlayerCount))
	}
	if c.WS.SendBuffer <= 0 {
		err = multierr.Append(err, fmt.Errorf("config: ws.send_buffer must be positive, got %d", c.WS.SendBuffer))
	}
	if c.WS.PongWait <= 0 || c.WS.WriteWait <= 0 {
		err = multierr.Append(err, errors.New("config: ws.pong_wait and ws.write_wait must be positive"))
	}
	if c.WS.WriteWait >= c.WS.PongWait {
		err = multierr.Append(err, errors.New("config: ws.write_wait must be shorter than ws.pong_wait"))
	}
	return err
}
