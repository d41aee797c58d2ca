package config

import (
	"encoding/json"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMySQL  = "mysql"
)

var (
	ErrMissingToken = errors.New("discord_app_key is required")
	ErrUnknownStore = errors.New("unknown store driver")
)

type (
	Config struct {
		DiscordAppKey string         `json:"discord_app_key"`
		SyslogChannel string         `json:"syslog_channel"`
		CommandGuild  string         `json:"command_guild"`
		LogLevel      string         `json:"log_level"`
		IPInfoToken   string         `json:"ipinfo_token"`
		Store         StoreConfig    `json:"store"`
		Activity      ActivityConfig `json:"activity"`
	}

	StoreConfig struct {
		Driver         string   `json:"driver"`
		FilePath       string   `json:"file_path"`
		RedisAddr      string   `json:"redis_addr"`
		RedisPassword  string   `json:"redis_password"`
		RedisDB        int      `json:"redis_db"`
		RedisKeyPrefix string   `json:"redis_key_prefix"`
		RedisTTL       Duration `json:"redis_ttl"`
		MySQLDSN       string   `json:"mysql_dsn"`
	}

	ActivityConfig struct {
		Interval Duration `json:"interval"`
		Messages []string `json:"messages"`
	}

	// Duration reads "30s"-style strings from JSON.
	Duration time.Duration
)

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "duration must be a string")
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "parse duration %q", s)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Store: StoreConfig{
			Driver:         StoreMemory,
			FilePath:       "reply_patterns.json",
			RedisAddr:      "localhost:6379",
			RedisKeyPrefix: "reply_patterns",
		},
		Activity: ActivityConfig{
			Interval: Duration(time.Minute),
			Messages: []string{"/reply in {guilds} servers", "/reply add"},
		},
	}
}

// Load reads the JSON config at path, then applies .env and environment
// overrides. A missing file is fine as long as the token comes from the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		jsonB, err := io.ReadAll(file)
		if err != nil {
			return Config{}, errors.Wrapf(err, "read %s", path)
		}
		if err := json.Unmarshal(jsonB, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "decode %s", path)
		}
	case !os.IsNotExist(err):
		return Config{}, errors.Wrapf(err, "open %s", path)
	}

	// .env is optional, real environment variables win over it
	_ = godotenv.Load()

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DiscordAppKey == "" {
		return ErrMissingToken
	}
	switch c.Store.Driver {
	case StoreMemory, StoreFile, StoreRedis:
	case StoreMySQL:
		if c.Store.MySQLDSN == "" {
			return errors.New("store.mysql_dsn is required for the mysql driver")
		}
	default:
		return errors.Wrap(ErrUnknownStore, c.Store.Driver)
	}
	if c.Store.RedisTTL < 0 {
		return errors.New("store.redis_ttl must not be negative")
	}
	if c.Activity.Interval < 0 {
		return errors.New("activity.interval must not be negative")
	}
	return nil
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	if c.DiscordAppKey != "" {
		c.DiscordAppKey = "***"
	}
	if c.IPInfoToken != "" {
		c.IPInfoToken = "***"
	}
	if c.Store.RedisPassword != "" {
		c.Store.RedisPassword = "***"
	}
	if c.Store.MySQLDSN != "" {
		c.Store.MySQLDSN = "***"
	}
	return c
}

func applyEnv(cfg *Config) error {
	setString(&cfg.DiscordAppKey, "DISCORD_APP_KEY")
	setString(&cfg.SyslogChannel, "SYSLOG_CHANNEL")
	setString(&cfg.CommandGuild, "COMMAND_GUILD")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.IPInfoToken, "IPINFO_TOKEN")
	setString(&cfg.Store.Driver, "STORE_DRIVER")
	setString(&cfg.Store.FilePath, "STORE_FILE_PATH")
	setString(&cfg.Store.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Store.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.Store.MySQLDSN, "MYSQL_DSN")

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "REDIS_DB %q", v)
		}
		cfg.Store.RedisDB = db
	}
	if v := os.Getenv("REDIS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "REDIS_TTL %q", v)
		}
		cfg.Store.RedisTTL = Duration(d)
	}
	if v := os.Getenv("ACTIVITY_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "ACTIVITY_INTERVAL %q", v)
		}
		cfg.Activity.Interval = Duration(d)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
