package utils

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Booking  BookingConfig
	Pricing  PricingConfig
	RabbitMQ RabbitMQConfig
	Omise    OmiseConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type JWTConfig struct {
	Secret string
}

type BookingConfig struct {
	HoldTimeout   time.Duration
	SweepInterval time.Duration
}

// PricingConfig carries the deployment-tuned pricing constants. The peak and
// off-peak hour boundaries are half-open [from, to) local hours.
type PricingConfig struct {
	PeakHours         string
	OffPeakHours      string
	PeakMultiplier    float64
	OffPeakMultiplier float64
	WeekendMultiplier float64
	MinimumCharge     float64
	DemandMultiplier  float64
}

type RabbitMQConfig struct {
	URL     string
	Enabled bool
}

type OmiseConfig struct {
	PublicKey string
	SecretKey string
	Currency  string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("BOOKING_HOLD_TIMEOUT_MINUTES", 15)
	viper.SetDefault("BOOKING_SWEEP_INTERVAL_SECONDS", 60)
	viper.SetDefault("PRICING_PEAK_HOURS", "07-10,16-19")
	viper.SetDefault("PRICING_OFFPEAK_HOURS", "00-06")
	viper.SetDefault("PRICING_PEAK_MULTIPLIER", 1.25)
	viper.SetDefault("PRICING_OFFPEAK_MULTIPLIER", 0.85)
	viper.SetDefault("PRICING_WEEKEND_MULTIPLIER", 1.15)
	viper.SetDefault("PRICING_MINIMUM_CHARGE", 5.00)
	viper.SetDefault("PRICING_DEMAND_MULTIPLIER", 1.0)
	viper.SetDefault("RABBITMQ_ENABLED", true)
	viper.SetDefault("OMISE_CURRENCY", "usd")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		Booking: BookingConfig{
			HoldTimeout:   time.Duration(viper.GetInt("BOOKING_HOLD_TIMEOUT_MINUTES")) * time.Minute,
			SweepInterval: time.Duration(viper.GetInt("BOOKING_SWEEP_INTERVAL_SECONDS")) * time.Second,
		},
		Pricing: PricingConfig{
			PeakHours:         viper.GetString("PRICING_PEAK_HOURS"),
			OffPeakHours:      viper.GetString("PRICING_OFFPEAK_HOURS"),
			PeakMultiplier:    viper.GetFloat64("PRICING_PEAK_MULTIPLIER"),
			OffPeakMultiplier: viper.GetFloat64("PRICING_OFFPEAK_MULTIPLIER"),
			WeekendMultiplier: viper.GetFloat64("PRICING_WEEKEND_MULTIPLIER"),
			MinimumCharge:     viper.GetFloat64("PRICING_MINIMUM_CHARGE"),
			DemandMultiplier:  viper.GetFloat64("PRICING_DEMAND_MULTIPLIER"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:     viper.GetString("RABBITMQ_URL"),
			Enabled: viper.GetBool("RABBITMQ_ENABLED"),
		},
		Omise: OmiseConfig{
			PublicKey: viper.GetString("OMISE_PUBLIC_KEY"),
			SecretKey: viper.GetString("OMISE_SECRET_KEY"),
			Currency:  viper.GetString("OMISE_CURRENCY"),
		},
	}

	return config, nil
}
