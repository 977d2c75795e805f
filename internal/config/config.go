package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Telegram TelegramConfig
	Ledger   LedgerConfig
	Store    StoreConfig
	Redis    RedisConfig
	Flood    FloodConfig
	Server   ServerConfig
	Log      LogConfig
}

type TelegramConfig struct {
	Token string
}

// LedgerConfig holds the tunables of the calorie ledger engine.
type LedgerConfig struct {
	DefaultLimit int
	MaxIntake    int
	CutoffHour   int
	Timezone     string
	// IntakeBreakpoints are the upper bounds (exclusive) of the first four
	// intake tiers; everything at or above the last bound is the top tier.
	IntakeBreakpoints []int
	// HeadroomBreakpoints are fraction-used upper bounds for the first four
	// headroom tiers.
	HeadroomBreakpoints []float64
	// Units are the literal calorie-unit suffixes the parser recognizes.
	Units []string
}

// Location resolves the configured time zone name.
func (c LedgerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

type StoreConfig struct {
	Path string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured. The flood guard
// is skipped entirely when it was not.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type FloodConfig struct {
	MaxPerMinute int
}

type ServerConfig struct {
	Host string
	Port int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	// List-valued options arrive from the environment as one delimited
	// string; the koanf slice getters would read them as empty.
	intakeBPs, err := intList(k, "ledger.intake.breakpoints")
	if err != nil {
		return nil, err
	}
	headroomBPs, err := floatList(k, "ledger.headroom.breakpoints")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			Token: k.String("telegram.token"),
		},
		Ledger: LedgerConfig{
			DefaultLimit:        k.Int("ledger.default.limit"),
			MaxIntake:           k.Int("ledger.max.intake"),
			CutoffHour:          k.Int("ledger.cutoff.hour"),
			Timezone:            k.String("ledger.timezone"),
			IntakeBreakpoints:   intakeBPs,
			HeadroomBreakpoints: headroomBPs,
			Units:               splitList(k.String("ledger.units")),
		},
		Store: StoreConfig{
			Path: k.String("store.path"),
		},
		Redis: RedisConfig{
			Addr:     k.String("redis.addr"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		Flood: FloodConfig{
			MaxPerMinute: k.Int("flood.max.per.minute"),
		},
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Ledger.DefaultLimit == 0 {
		cfg.Ledger.DefaultLimit = 2000
	}
	if cfg.Ledger.MaxIntake == 0 {
		cfg.Ledger.MaxIntake = 5000
	}
	if !k.Exists("ledger.cutoff.hour") {
		cfg.Ledger.CutoffHour = 6
	}
	if cfg.Ledger.Timezone == "" {
		cfg.Ledger.Timezone = "Europe/Moscow"
	}
	if len(cfg.Ledger.IntakeBreakpoints) == 0 {
		cfg.Ledger.IntakeBreakpoints = []int{80, 200, 450, 800}
	}
	if len(cfg.Ledger.HeadroomBreakpoints) == 0 {
		cfg.Ledger.HeadroomBreakpoints = []float64{0.25, 0.55, 0.8, 1.0}
	}
	if len(cfg.Ledger.Units) == 0 {
		cfg.Ledger.Units = []string{"ккал", "кал", "кк", "kcal", "cal"}
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "kkal.db"
	}
	if cfg.Flood.MaxPerMinute == 0 {
		cfg.Flood.MaxPerMinute = 20
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	return cfg, nil
}

// splitList splits a comma- or whitespace-separated option value.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

func intList(k *koanf.Koanf, key string) ([]int, error) {
	var out []int
	for _, tok := range splitList(k.String(key)) {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not an integer", strings.ToUpper(strings.ReplaceAll(key, ".", "_")), tok)
		}
		out = append(out, v)
	}
	return out, nil
}

func floatList(k *koanf.Koanf, key string) ([]float64, error) {
	var out []float64
	for _, tok := range splitList(k.String(key)) {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", strings.ToUpper(strings.ReplaceAll(key, ".", "_")), tok)
		}
		out = append(out, v)
	}
	return out, nil
}
