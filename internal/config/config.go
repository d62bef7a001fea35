package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	SendinblueAPIKey    string // SENDINBLUE_API_KEY for maintenance notifications (Brevo)
	MailFrom            string
	OpsEmail            string // OPS_EMAIL receives new maintenance request notices

	HoldDefaultMinutes int
	LateFeeGraceDays   int
	LateFeeRate        decimal.Decimal

	CronEnabled      bool
	CronReleaseHolds string
	CronOverdue      string
	CronRepair       string

	AuditStreamMaxLen int64
	EventStreamKey    string
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("HOLD_DEFAULT_MINUTES", 15)
	viper.SetDefault("LATE_FEE_GRACE_DAYS", 5)
	viper.SetDefault("LATE_FEE_RATE", "0.05")
	viper.SetDefault("CRON_ENABLED", true)
	viper.SetDefault("CRON_RELEASE_HOLDS", "@every 1m")
	viper.SetDefault("CRON_OVERDUE", "10 0 * * *")
	viper.SetDefault("CRON_REPAIR", "@every 15m")
	viper.SetDefault("AUDIT_STREAM_MAXLEN", 10000)
	viper.SetDefault("EVENT_STREAM_KEY", "propertyops:events")

	env := viper.GetString("NODE_ENV")
	if env == "" {
		env = viper.GetString("APP_ENV")
	}
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL_DEV")
	}

	rate, err := decimal.NewFromString(viper.GetString("LATE_FEE_RATE"))
	if err != nil {
		return nil, fmt.Errorf("LATE_FEE_RATE: %w", err)
	}

	cfg := &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		SendinblueAPIKey:    viper.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            viper.GetString("MAIL_FROM"),
		OpsEmail:            viper.GetString("OPS_EMAIL"),
		HoldDefaultMinutes:  viper.GetInt("HOLD_DEFAULT_MINUTES"),
		LateFeeGraceDays:    viper.GetInt("LATE_FEE_GRACE_DAYS"),
		LateFeeRate:         rate,
		CronEnabled:         viper.GetBool("CRON_ENABLED"),
		CronReleaseHolds:    viper.GetString("CRON_RELEASE_HOLDS"),
		CronOverdue:         viper.GetString("CRON_OVERDUE"),
		CronRepair:          viper.GetString("CRON_REPAIR"),
		AuditStreamMaxLen:   viper.GetInt64("AUDIT_STREAM_MAXLEN"),
		EventStreamKey:      viper.GetString("EVENT_STREAM_KEY"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects policy values that would make fee or hold math meaningless.
func (c *Config) Validate() error {
	if c.HoldDefaultMinutes <= 0 {
		return fmt.Errorf("HOLD_DEFAULT_MINUTES must be positive, got %d", c.HoldDefaultMinutes)
	}
	if c.LateFeeGraceDays < 0 {
		return fmt.Errorf("LATE_FEE_GRACE_DAYS must not be negative, got %d", c.LateFeeGraceDays)
	}
	if c.LateFeeRate.IsNegative() || c.LateFeeRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("LATE_FEE_RATE must be within [0,1], got %s", c.LateFeeRate)
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
