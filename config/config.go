package config

import (
	"log"

	"slotify/models"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	StripeKey         string `mapstructure:"STRIPE_KEY"`
	PaySuccessURL     string `mapstructure:"PAY_SUCCESS_URL"`
	PayCancelURL      string `mapstructure:"PAY_CANCEL_URL"`

	// MongoDB configuration.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisLockDB   int    `mapstructure:"REDIS_LOCK_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Business defaults. The persisted overrides document may replace any of
	// the policy values at runtime; these are the fallbacks.
	BusinessTimezone      string `mapstructure:"BUSINESS_TIMEZONE"`
	Currency              string `mapstructure:"CURRENCY"`
	HoldTTLMinutes        int    `mapstructure:"HOLD_TTL_MINUTES"`
	RescheduleLockHours   int    `mapstructure:"RESCHEDULE_LOCK_HOURS"`
	CancelLockHours       int    `mapstructure:"CANCEL_LOCK_HOURS"`
	LeadTimeMinutes       int    `mapstructure:"LEAD_TIME_MINUTES"`
	FutureWindowDays      int    `mapstructure:"FUTURE_WINDOW_DAYS"`
	SlotGridMinutes       int    `mapstructure:"SLOT_GRID_MINUTES"`
	OnlineDiscountPercent int    `mapstructure:"ONLINE_DISCOUNT_PERCENT"`
	OnlineEnabled         bool   `mapstructure:"ONLINE_ENABLED"`
	RescheduleMaxCount    int    `mapstructure:"RESCHEDULE_MAX_COUNT"`
	ReminderLeadMinutes   int    `mapstructure:"REMINDER_LEAD_MINUTES"`

	// Caching and workers.
	SettingsCacheTTLSeconds int `mapstructure:"SETTINGS_CACHE_TTL_SECONDS"`
	CatalogCacheTTLSeconds  int `mapstructure:"CATALOG_CACHE_TTL_SECONDS"`
	HoldExpirerSeconds      int `mapstructure:"HOLD_EXPIRER_SECONDS"`
	ReminderDispatchSeconds int `mapstructure:"REMINDER_DISPATCH_SECONDS"`
	PaymentReconcileSeconds int `mapstructure:"PAYMENT_RECONCILE_SECONDS"`
	WorkerBatchSize         int `mapstructure:"WORKER_BATCH_SIZE"`
	RequestTimeoutSeconds   int `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("PAY_SUCCESS_URL", "https://pay.slotify.app/success")
	viper.SetDefault("PAY_CANCEL_URL", "https://pay.slotify.app/cancel")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DB_NAME", "slotify")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_LOCK_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("BUSINESS_TIMEZONE", "UTC")
	viper.SetDefault("CURRENCY", "USD")
	viper.SetDefault("HOLD_TTL_MINUTES", 15)
	viper.SetDefault("RESCHEDULE_LOCK_HOURS", 3)
	viper.SetDefault("CANCEL_LOCK_HOURS", 3)
	viper.SetDefault("LEAD_TIME_MINUTES", 0)
	viper.SetDefault("FUTURE_WINDOW_DAYS", 60)
	viper.SetDefault("SLOT_GRID_MINUTES", 15)
	viper.SetDefault("ONLINE_DISCOUNT_PERCENT", 0)
	viper.SetDefault("ONLINE_ENABLED", false)
	viper.SetDefault("RESCHEDULE_MAX_COUNT", 3)
	viper.SetDefault("REMINDER_LEAD_MINUTES", 0)
	viper.SetDefault("SETTINGS_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("CATALOG_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("HOLD_EXPIRER_SECONDS", 30)
	viper.SetDefault("REMINDER_DISPATCH_SECONDS", 60)
	viper.SetDefault("PAYMENT_RECONCILE_SECONDS", 120)
	viper.SetDefault("WORKER_BATCH_SIZE", 200)
	viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 15)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// DefaultPolicy assembles the policy value from configured defaults. The
// settings service overlays the persisted overrides document on top of it.
func DefaultPolicy() models.Policy {
	return models.Policy{
		HoldTTLMinutes:        AppConfig.HoldTTLMinutes,
		RescheduleLockHours:   AppConfig.RescheduleLockHours,
		CancelLockHours:       AppConfig.CancelLockHours,
		LeadTimeMinutes:       AppConfig.LeadTimeMinutes,
		FutureWindowDays:      AppConfig.FutureWindowDays,
		SlotGridMinutes:       AppConfig.SlotGridMinutes,
		OnlineDiscountPercent: AppConfig.OnlineDiscountPercent,
		OnlineEnabled:         AppConfig.OnlineEnabled,
		RescheduleMaxCount:    AppConfig.RescheduleMaxCount,
		ReminderLeadMinutes:   AppConfig.ReminderLeadMinutes,
		BusinessTimezone:      AppConfig.BusinessTimezone,
		Currency:              AppConfig.Currency,
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
