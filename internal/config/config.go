package config

import (
	"strings"

	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Level       string `mapstructure:"level"`
	Port        string `mapstructure:"port"`
	DatabaseURL string `mapstructure:"database_url"`
	RedisURI    string `mapstructure:"redis_uri"`
	JWTSecret   string `mapstructure:"jwt_secret"`

	// Twilio SMS notification on election close. All three must be set
	// for notifications to be enabled.
	TwilioAccountSID string `mapstructure:"twilio_account_sid"`
	TwilioAuthToken  string `mapstructure:"twilio_auth_token"`
	TwilioFrom       string `mapstructure:"twilio_from"`
	AdminPhone       string `mapstructure:"admin_phone"`
}

// New builds the configuration from flags and environment, flags winning.
// Environment keys are the upper-cased flag names (PORT, DATABASE_URL,
// REDIS_URI, JWT_SECRET, ...); a .env file is honored via godotenv.
func New(args []string) (*Config, error) {
	v := viper.New()

	flags := pflag.NewFlagSet("openballot", pflag.ContinueOnError)
	flags.String("level", "info", "Log level")
	flags.String("port", "8080", "HTTP listen port")
	flags.String("database_url", "", "Postgres connection string")
	flags.String("redis_uri", "", "Redis address for the realtime feed (optional)")
	flags.String("jwt_secret", "", "Secret for signing session tokens")
	flags.String("twilio_account_sid", "", "Twilio account SID (optional)")
	flags.String("twilio_auth_token", "", "Twilio auth token (optional)")
	flags.String("twilio_from", "", "Twilio sender number (optional)")
	flags.String("admin_phone", "", "Phone number notified when elections close (optional)")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	initLog(cfg.Level)

	return cfg, nil
}

// NotificationsEnabled reports whether the Twilio credentials are complete
// enough to send close notifications.
func (c *Config) NotificationsEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFrom != "" && c.AdminPhone != ""
}

func initLog(level string) {
	if l, err := log.ParseLevel(level); err == nil {
		log.SetLevel(l)
	}
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
}
