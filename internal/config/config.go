package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	ierr "github.com/upbill/upbill/internal/errors"
)

// Configuration is the full runtime configuration of the billing core,
// loaded from config files and UPBILL_* environment variables.
type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Billing    BillingConfig    `mapstructure:"billing"`
	Razorpay   RazorpayConfig   `mapstructure:"razorpay"`
}

type DeploymentConfig struct {
	Mode string `mapstructure:"mode"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int    `mapstructure:"max_conns"`
}

// BillingConfig carries the supplier's statutory identity and invoicing
// policy. The supplier state drives the intra vs inter state tax split.
type BillingConfig struct {
	SupplierName    string `mapstructure:"supplier_name"`
	SupplierGSTIN   string `mapstructure:"supplier_gstin"`
	SupplierState   string `mapstructure:"supplier_state"`
	SupplierAddress string `mapstructure:"supplier_address"`

	// GSTRatePercent is the default tax rate applied to invoices.
	GSTRatePercent int `mapstructure:"gst_rate_percent"`

	// InvoiceDueDays is the fixed payment term added to the invoice date.
	InvoiceDueDays int `mapstructure:"invoice_due_days"`

	// InvoiceNumberPrefix is the statutory series prefix, e.g. "INV".
	InvoiceNumberPrefix string `mapstructure:"invoice_number_prefix"`

	// TrialEndingReminderDays controls how far ahead of trial expiry the
	// trial_ending event fires.
	TrialEndingReminderDays int `mapstructure:"trial_ending_reminder_days"`
}

type RazorpayConfig struct {
	KeyID     string `mapstructure:"key_id"`
	KeySecret string `mapstructure:"key_secret"`
}

// NewConfig loads configuration from ./config/config.yaml (optional) and the
// environment. A .env file is honoured for local development.
func NewConfig() (*Configuration, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("UPBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, ierr.WithError(err).
				WithHint("Failed to read configuration file").
				Mark(ierr.ErrSystem)
		}
	}

	cfg := &Configuration{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to parse configuration").
			Mark(ierr.ErrSystem)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", "local")
	v.SetDefault("logging.level", "info")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("billing.gst_rate_percent", 18)
	v.SetDefault("billing.invoice_due_days", 7)
	v.SetDefault("billing.invoice_number_prefix", "INV")
	v.SetDefault("billing.trial_ending_reminder_days", 3)
}

// Validate checks the invariants the billing math depends on.
func (c *Configuration) Validate() error {
	if c.Billing.GSTRatePercent < 0 || c.Billing.GSTRatePercent > 100 {
		return ierr.NewError("gst_rate_percent out of range").
			WithHint("GST rate must be between 0 and 100").
			Mark(ierr.ErrValidation)
	}
	if c.Billing.InvoiceDueDays <= 0 {
		return ierr.NewError("invoice_due_days must be positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// GetDefaultConfig returns an in-memory configuration suitable for tests and
// scripts. The supplier is a Karnataka entity, matching the test fixtures.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: "test"},
		Logging:    LoggingConfig{Level: "debug"},
		Postgres: PostgresConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "upbill",
			DBName:  "upbill",
			SSLMode: "disable",
		},
		Billing: BillingConfig{
			SupplierName:            "Upbill Technologies Pvt Ltd",
			SupplierGSTIN:           "29AABCU9603R1ZM",
			SupplierState:           "KA",
			SupplierAddress:         "44 Residency Road, Bengaluru, KA 560025",
			GSTRatePercent:          18,
			InvoiceDueDays:          7,
			InvoiceNumberPrefix:     "INV",
			TrialEndingReminderDays: 3,
		},
	}
}
