package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "MEET"

type StoreConfig struct {
	Driver         string        `mapstructure:"driver"`
	MongoURI       string        `mapstructure:"mongo_uri"`
	MongoDatabase  string        `mapstructure:"mongo_database"`
	PostgresDSN    string        `mapstructure:"postgres_dsn"`
	PersistTimeout time.Duration `mapstructure:"persist_timeout"`
	// SeedMeetings is loaded into the memory driver at startup.
	SeedMeetings []SeedMeeting `mapstructure:"seed_meetings"`
}

type SeedMeeting struct {
	Code         string         `mapstructure:"code"`
	Title        string         `mapstructure:"title"`
	Host         string         `mapstructure:"host"`
	Capacity     int            `mapstructure:"capacity"`
	Participants []string       `mapstructure:"participants"`
	Breakouts    []SeedBreakout `mapstructure:"breakout_rooms"`
}

type SeedBreakout struct {
	Code     string `mapstructure:"code"`
	Name     string `mapstructure:"name"`
	Capacity int    `mapstructure:"capacity"`
	Status   string `mapstructure:"status"`
}

type RateConfig struct {
	Limit    int           `mapstructure:"limit"`
	Interval time.Duration `mapstructure:"interval"`
}

type ICEServer struct {
	URLs       []string `mapstructure:"urls" json:"urls"`
	Username   string   `mapstructure:"username" json:"username,omitempty"`
	Credential string   `mapstructure:"credential" json:"credential,omitempty"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
	Secret     string        `mapstructure:"secret"`
	JWTSecret  string        `mapstructure:"jwt_secret"`
	LogLevel   string        `mapstructure:"log_level"`
	Store      StoreConfig   `mapstructure:"store"`
	JoinRate   RateConfig    `mapstructure:"join_rate"`
	ICEServers []ICEServer   `mapstructure:"ice_servers"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 256)
	v.SetDefault("secret", "change-me")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo_database", "meet")
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.persist_timeout", "5s")
	v.SetDefault("store.seed_meetings", []map[string]any{
		{"code": "DEMO01", "title": "Demo meeting", "host": "host"},
	})
	v.SetDefault("join_rate.limit", 10)
	v.SetDefault("join_rate.interval", "1m")
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})
}

// Load reads config/config.<CONFIG_ENV>.yaml (or path when set), then
// MEET_* environment variables, then any flags that were changed.
// A .env file in the working directory is loaded first if present.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("module", "config").Msg("could not read .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if path == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		path = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", path).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", path).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("store", cfg.Store.Driver).Msg("config ready")
	return &cfg, nil
}

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"port":      "port",
	"mode":      "mode",
	"store":     "store.driver",
	"log-level": "log_level",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "mongo", "postgres":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.PostgresDSN == "" {
		return errors.New("store.postgres_dsn is required for the postgres driver")
	}
	for i, m := range c.Store.SeedMeetings {
		if strings.TrimSpace(m.Code) == "" {
			return fmt.Errorf("store.seed_meetings[%d]: code is required", i)
		}
		for j, b := range m.Breakouts {
			if strings.TrimSpace(b.Code) == "" {
				return fmt.Errorf("store.seed_meetings[%d].breakout_rooms[%d]: code is required", i, j)
			}
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.JoinRate.Limit < 0 {
		return fmt.Errorf("invalid join_rate.limit %d", c.JoinRate.Limit)
	}
	return nil
}

// WebRTCICEServers converts the configured servers for clients.
func (c *Config) WebRTCICEServers() []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(c.ICEServers))
	for _, s := range c.ICEServers {
		srv := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
		}
		out = append(out, srv)
	}
	return out
}
