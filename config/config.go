package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	Database struct {
		DSN string `mapstructure:"dsn"` // store.backend 为 postgres / sqlite 时使用
	} `mapstructure:"database"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	JWT struct {
		Secret string        `mapstructure:"secret"`
		TTL    time.Duration `mapstructure:"ttl"`
	} `mapstructure:"jwt"`
	Store       StoreConfig       `mapstructure:"store"`
	Table       TableConfig       `mapstructure:"table"`
	Bots        BotConfig         `mapstructure:"bots"`
	Autoplay    AutoplayConfig    `mapstructure:"autoplay"`
	Matchmaking MatchmakingConfig `mapstructure:"matchmaking"`
}

// StoreConfig 手牌状态存储：memory / redis / postgres / sqlite
type StoreConfig struct {
	Backend  string        `mapstructure:"backend"`
	StateTTL time.Duration `mapstructure:"state_ttl"`
}

type TableConfig struct {
	MaxPlayers    int   `mapstructure:"max_players"`
	SmallBlind    int64 `mapstructure:"small_blind"`
	BigBlind      int64 `mapstructure:"big_blind"`
	StartingStack int64 `mapstructure:"starting_stack"`
	MinHumans     int   `mapstructure:"min_humans"`
}

// BotConfig 机器人配置，全部可以用 HOLDEM_BOTS_* 环境变量覆盖
type BotConfig struct {
	Enabled                 bool   `mapstructure:"enabled"`
	MaxPerTable             int    `mapstructure:"max_per_table"`
	DefaultProfile          string `mapstructure:"default_profile"`
	BuyInBB                 int64  `mapstructure:"buy_in_bb"`
	BankrollAccountKey      string `mapstructure:"bankroll_account_key"`
	MaxActionsPerInvocation int    `mapstructure:"max_actions_per_invocation"`
	BotsOnlyHardCap         int    `mapstructure:"bots_only_hard_cap"`
}

type AutoplayConfig struct {
	AdvanceCap int `mapstructure:"advance_cap"`
}

type MatchmakingConfig struct {
	Pool            string `mapstructure:"pool"`
	QueueTTLSeconds int    `mapstructure:"queue_ttl_seconds"`
}

const EnvPrefix = "HOLDEM"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.state_ttl", time.Duration(0))

	v.SetDefault("table.max_players", 6)
	v.SetDefault("table.small_blind", 1)
	v.SetDefault("table.big_blind", 2)
	v.SetDefault("table.starting_stack", 200)
	v.SetDefault("table.min_humans", 1)

	v.SetDefault("bots.enabled", true)
	v.SetDefault("bots.max_per_table", 4)
	v.SetDefault("bots.default_profile", "trivial")
	v.SetDefault("bots.buy_in_bb", 100)
	v.SetDefault("bots.bankroll_account_key", "system:bot-bankroll")
	v.SetDefault("bots.max_actions_per_invocation", 8)
	v.SetDefault("bots.bots_only_hard_cap", 200)

	v.SetDefault("autoplay.advance_cap", 4)

	v.SetDefault("matchmaking.pool", "cash-1-2")
	v.SetDefault("matchmaking.queue_ttl_seconds", 300)
}

// Load 读取配置文件（path 为空或文件不存在时只用默认值）并叠加 HOLDEM_ 环境变量。
// 进程启动时调用一次，之后把 Config 显式传给各个组件。
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate 拒绝无法开桌的组合
func (c Config) Validate() error {
	t := c.Table
	if t.MaxPlayers < 2 || t.MaxPlayers > 22 {
		return fmt.Errorf("table.max_players must be in [2, 22], got %d", t.MaxPlayers)
	}
	if t.SmallBlind < 0 || t.BigBlind < t.SmallBlind {
		return fmt.Errorf("bad blinds %d/%d", t.SmallBlind, t.BigBlind)
	}
	if t.StartingStack <= 0 {
		return fmt.Errorf("table.starting_stack must be positive")
	}
	if t.MinHumans < 1 || t.MinHumans > t.MaxPlayers {
		return fmt.Errorf("table.min_humans must be in [1, %d]", t.MaxPlayers)
	}
	if c.Bots.MaxPerTable < 0 || c.Bots.MaxActionsPerInvocation < 0 || c.Bots.BotsOnlyHardCap < 0 {
		return fmt.Errorf("bot limits must not be negative")
	}
	switch c.Store.Backend {
	case "memory", "redis":
	case "postgres", "sqlite":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for store.backend %q", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	return nil
}

// BotBuyIn 机器人带入的筹码；不收盲注的桌子按起始筹码带入
func (c Config) BotBuyIn() int64 {
	if n := c.Bots.BuyInBB * c.Table.BigBlind; n > 0 {
		return n
	}
	return c.Table.StartingStack
}
