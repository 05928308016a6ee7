package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/cloudnet/billing/internal/types"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Stripe     StripeConfig     `validate:"required"`
	PayPal     PayPalConfig
	MaxMind    MaxMindConfig
	Billing    BillingConfig `validate:"required"`
	Sentry     SentryConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// StripeConfig selects sandbox or live behaviour explicitly at
// construction time. Nothing else in the codebase inspects the
// deployment environment to decide which gateway to talk to.
type StripeConfig struct {
	SecretKey string `validate:"required"`
	Sandbox   bool
	// MaxRequestsPerSecond caps outbound gateway calls. Zero disables
	// client-side pacing.
	MaxRequestsPerSecond int
}

type PayPalConfig struct {
	APIUser      string
	APIPassword  string
	APISignature string
	Sandbox      bool
}

type MaxMindConfig struct {
	AccountID  string
	LicenseKey string
	Endpoint   string
}

type BillingConfig struct {
	// MinChargeAmountCents is the smallest batch total worth sending to
	// the gateway; batches below it stay outstanding until next cycle.
	MinChargeAmountCents int64 `validate:"required"`
	// ValidTopUpAmounts is the allow-list of card top-up denominations
	// in whole dollars.
	ValidTopUpAmounts []int64 `validate:"required"`
}

type SentryConfig struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cloudnet-billing")

	v.SetEnvPrefix("CLOUDNET")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests. The gateway key is a placeholder; tests substitute a fake
// gateway client and never dial out.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelInfo},
		Stripe:     StripeConfig{SecretKey: "sk_test_local", Sandbox: true},
		Billing: BillingConfig{
			MinChargeAmountCents: 50,
			ValidTopUpAmounts:    []int64{5, 10, 20, 50, 100, 250},
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
