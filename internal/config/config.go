package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	SMTP      SMTPConfig
	JWT       JWTConfig
	Engine    EngineConfig
	Scheduler SchedulerConfig
	Payment   PaymentConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
	// BaseURL is the public site root used in unsubscribe links.
	BaseURL        string  `mapstructure:"base_url"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Sender   string `mapstructure:"sender"`
	// SendsPerSecond throttles outbound mail for deliverability.
	SendsPerSecond float64 `mapstructure:"sends_per_second"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type EngineConfig struct {
	// RetentionCount is how many history rows survive a cycle reset.
	RetentionCount int `mapstructure:"retention_count"`
	// Timezone sets the day boundary for per-day caps, e.g. America/Lima.
	Timezone string `mapstructure:"timezone"`
}

type SchedulerConfig struct {
	DispatchInterval     time.Duration `mapstructure:"dispatch_interval"`
	LeaseTTL             time.Duration `mapstructure:"lease_ttl"`
	Concurrency          int           `mapstructure:"concurrency"`
	CleanupEnabled       bool          `mapstructure:"cleanup_enabled"`
	CleanupInterval      time.Duration `mapstructure:"cleanup_interval"`
	CleanupRetentionRows int           `mapstructure:"cleanup_retention_rows"`
}

type PaymentConfig struct {
	Izipay      IzipayConfig      `mapstructure:"izipay"`
	MercadoPago MercadoPagoConfig `mapstructure:"mercadopago"`
}

type IzipayConfig struct {
	ShopID   string `mapstructure:"shop_id"`
	HMACKey  string `mapstructure:"hmac_key"`
	TestMode bool   `mapstructure:"test_mode"`
}

type MercadoPagoConfig struct {
	WebhookSecret string `mapstructure:"webhook_secret"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
