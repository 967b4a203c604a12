package core

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreJSON   = "json"
	StoreBolt   = "bolt"
	StoreSQL    = "sql"
)

// Session backends
const (
	SessionsMemory = "memory"
	SessionsRedis  = "redis"
)

type (
	Config struct {
		AppName      string         `mapstructure:"app_name"`
		Env          string         `mapstructure:"env"`
		Build        string         `mapstructure:"build"`
		Debug        bool           `mapstructure:"debug"`
		TestMode     bool           `mapstructure:"test_mode"`
		RollbarToken string         `mapstructure:"rollbar_token"`
		Server       ServerConfig   `mapstructure:"server"`
		Store        StoreConfig    `mapstructure:"store"`
		Database     DatabaseConfig `mapstructure:"database"`
		Auth         AuthConfig     `mapstructure:"auth"`
		Redis        RedisConfig    `mapstructure:"redis"`
	}

	ServerConfig struct {
		Host            string        `mapstructure:"host"`
		Address         string        `mapstructure:"address"`
		DebugAddress    string        `mapstructure:"debug_address"`
		StaticDir       string        `mapstructure:"static_dir"`
		DisableReqLogs  bool          `mapstructure:"disable_req_logs"`
		AllowedOrigins  []string      `mapstructure:"allowed_origins"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	}

	StoreConfig struct {
		Backend  string `mapstructure:"backend"`   // memory | json | bolt | sql
		Path     string `mapstructure:"path"`      // json & bolt file
		SeedFile string `mapstructure:"seed_file"` // optional; built-in activities otherwise
	}

	DatabaseConfig struct {
		Engine     string `mapstructure:"engine"` // sqlite | postgres
		Path       string `mapstructure:"path"`   // sqlite file
		Host       string `mapstructure:"host"`
		Port       int    `mapstructure:"port"`
		User       string `mapstructure:"user"`
		Password   string `mapstructure:"password"`
		Name       string `mapstructure:"name"`
		DisableTLS bool   `mapstructure:"disable_tls"`
	}

	AuthConfig struct {
		AccountsFile   string        `mapstructure:"accounts_file"`
		SessionBackend string        `mapstructure:"session_backend"` // memory | redis
		SessionTTL     time.Duration `mapstructure:"session_ttl"`
		ProtectSignups bool          `mapstructure:"protect_signups"`
	}

	RedisConfig struct {
		Address   string `mapstructure:"address"`
		Password  string `mapstructure:"password"`
		DB        int    `mapstructure:"db"`
		KeyPrefix string `mapstructure:"key_prefix"`
	}
)

func (dbc DatabaseConfig) Address() string {
	return dbc.Host + ":" + strconv.Itoa(dbc.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "Mergington High School API")
	v.SetDefault("env", "DEV")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("test_mode", false)
	v.SetDefault("rollbar_token", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debug_address", "localhost:4000")
	v.SetDefault("server.static_dir", "static")
	v.SetDefault("server.disable_req_logs", false)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("store.backend", StoreMemory)
	v.SetDefault("store.path", "data/roster.json")
	v.SetDefault("store.seed_file", "")

	v.SetDefault("database.engine", "sqlite")
	v.SetDefault("database.path", "data/roster.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "roster")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "roster")
	v.SetDefault("database.disable_tls", true)

	v.SetDefault("auth.accounts_file", "data/teachers.json")
	v.SetDefault("auth.session_backend", SessionsMemory)
	v.SetDefault("auth.session_ttl", 8*time.Hour)
	v.SetDefault("auth.protect_signups", false)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "roster:")
}

// NewConfig loads the application config.
// Lookup order (last wins): defaults, config/config.yaml, config/.env.<env>, ROSTER_* env vars.
func NewConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("test_mode", true)
	case "PROD":
		v.SetDefault("debug", false)
	}
	v.Set("env", env)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}

	v.SetEnvPrefix("roster")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	return conf, nil
}
