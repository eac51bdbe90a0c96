package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string `mapstructure:"PORT"`
	DataDir       string `mapstructure:"DATA_DIR"`
	BackupsToKeep int    `mapstructure:"BACKUPS_TO_KEEP"`

	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	SupabaseDBURL  string        `mapstructure:"SUPABASE_DB_URL"`
	DBQueryTimeout time.Duration `mapstructure:"DB_QUERY_TIMEOUT"`

	JWTSecret           string        `mapstructure:"JWT_SECRET_KEY"`
	TokenTTL            time.Duration `mapstructure:"TOKEN_TTL"`
	StaffPasswordHash   string        `mapstructure:"STAFF_PASSWORD_HASH"`
	ManagerPasswordHash string        `mapstructure:"MANAGER_PASSWORD_HASH"`

	TableCount        int      `mapstructure:"TABLE_COUNT"`
	VIPTables         []string `mapstructure:"VIP_TABLES"`
	StrictTransitions bool     `mapstructure:"STRICT_ORDER_TRANSITIONS"`

	AMQPURL      string   `mapstructure:"AMQP_URL"`
	AMQPExchange string   `mapstructure:"AMQP_EXCHANGE"`
	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`

	ReportsBucket  string `mapstructure:"REPORTS_BUCKET"`
	ReportsRegion  string `mapstructure:"REPORTS_REGION"`
	RestaurantName string `mapstructure:"RESTAURANT_NAME"`
	Currency       string `mapstructure:"CURRENCY"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"PORT":                     "5001",
	"DATA_DIR":                 "data",
	"BACKUPS_TO_KEEP":          10,
	"DATABASE_URL":             "",
	"SUPABASE_DB_URL":          "",
	"DB_QUERY_TIMEOUT":         "5s",
	"JWT_SECRET_KEY":           "",
	"TOKEN_TTL":                "12h",
	"STAFF_PASSWORD_HASH":      "",
	"MANAGER_PASSWORD_HASH":    "",
	"TABLE_COUNT":              12,
	"VIP_TABLES":               "VIP1,VIP2",
	"STRICT_ORDER_TRANSITIONS": false,
	"AMQP_URL":                 "",
	"AMQP_EXCHANGE":            "tableside.events",
	"KAFKA_BROKERS":            "",
	"KAFKA_TOPIC":              "tableside-events",
	"REPORTS_BUCKET":           "",
	"REPORTS_REGION":           "us-east-1",
	"RESTAURANT_NAME":          "Green Heaven Restaurant",
	"CURRENCY":                 "LKR",
	"LOG_LEVEL":                "info",
	"LOG_FORMAT":               "text",
}

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"port":      "PORT",
	"data-dir":  "DATA_DIR",
	"log-level": "LOG_LEVEL",
}

// Load reads .env (if any), the process environment and the given flags, in
// increasing order of precedence.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = c.SupabaseDBURL
	}
	c.VIPTables = trimAll(c.VIPTables)
	c.KafkaBrokers = trimAll(c.KafkaBrokers)
}

func (c *Config) Validate() error {
	if c.BackupsToKeep < 1 {
		return fmt.Errorf("BACKUPS_TO_KEEP must be at least 1, got %d", c.BackupsToKeep)
	}
	if c.TableCount < 0 {
		return fmt.Errorf("TABLE_COUNT must not be negative, got %d", c.TableCount)
	}
	if c.DBQueryTimeout <= 0 {
		return fmt.Errorf("DB_QUERY_TIMEOUT must be positive, got %s", c.DBQueryTimeout)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// Tables lists the numbered tables followed by the VIP tables.
func (c *Config) Tables() []string {
	tables := make([]string, 0, c.TableCount+len(c.VIPTables))
	for i := 1; i <= c.TableCount; i++ {
		tables = append(tables, fmt.Sprintf("%d", i))
	}
	return append(tables, c.VIPTables...)
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
