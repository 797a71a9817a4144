package config

import (
	"log"
	"os"
	"time"

	"Alertify/pkg/cache"
	"Alertify/pkg/logger"
	"Alertify/pkg/notification"
	"Alertify/pkg/util"
)

type Config struct {
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"` // gin mode: debug|release|test
	APIPrefix string `env:"API_PREFIX"`

	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`

	// Base URL embedded into tracking links sent to contacts.
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	// Dispatch cadence. The 30s interval is the product contract
	// ("repeats every 30 seconds until marked safe").
	AlertInterval time.Duration `env:"ALERT_INTERVAL"`
	SendTimeout   time.Duration `env:"SEND_TIMEOUT"`
	TrackCadence  time.Duration `env:"TRACK_CADENCE"`

	// Journey watchdog grace past the estimated arrival.
	JourneyGrace      time.Duration `env:"JOURNEY_GRACE"`
	LocationRetention time.Duration `env:"LOCATION_RETENTION"`

	SMSProvider string `env:"SMS_PROVIDER"` // twilio|aliyun

	RateLimit string `env:"RATE_LIMIT"` // e.g. "120-M"; empty disables

	Log    logger.LogConfig
	Mail   notification.MailConfig
	Twilio notification.TwilioConfig
	Aliyun notification.AliyunSMSConfig
	Cache  cache.Config
}

var GlobalConfig *Config

func Load() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	GlobalConfig = &Config{
		Addr:      util.GetEnvDefault("ADDR", ":8080"),
		Mode:      util.GetEnvDefault("MODE", "release"),
		APIPrefix: util.GetEnvDefault("API_PREFIX", "/api"),

		DBDriver: util.GetEnv("DB_DRIVER"),
		DSN:      util.GetEnv("DSN"),

		PublicBaseURL: util.GetEnvDefault("PUBLIC_BASE_URL", "http://localhost:8080"),

		AlertInterval: util.GetDurationEnv("ALERT_INTERVAL", 30*time.Second),
		SendTimeout:   util.GetDurationEnv("SEND_TIMEOUT", 10*time.Second),
		TrackCadence:  util.GetDurationEnv("TRACK_CADENCE", 5*time.Second),

		JourneyGrace:      util.GetDurationEnv("JOURNEY_GRACE", 10*time.Minute),
		LocationRetention: util.GetDurationEnv("LOCATION_RETENTION", 30*24*time.Hour),

		SMSProvider: util.GetEnvDefault("SMS_PROVIDER", "twilio"),

		RateLimit: util.GetEnv("RATE_LIMIT"),

		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Mail: notification.MailConfig{
			Host:     util.GetEnv("MAIL_HOST"),
			Username: util.GetEnv("MAIL_USERNAME"),
			Password: util.GetEnv("MAIL_PASSWORD"),
			Port:     util.GetIntEnv("MAIL_PORT"),
			From:     util.GetEnv("MAIL_FROM"),
		},
		Twilio: notification.TwilioConfig{
			AccountSID: util.GetEnv("TWILIO_ACCOUNT_SID"),
			AuthToken:  util.GetEnv("TWILIO_AUTH_TOKEN"),
			From:       util.GetEnv("TWILIO_FROM"),
			Endpoint:   util.GetEnv("TWILIO_ENDPOINT"),
		},
		Aliyun: notification.AliyunSMSConfig{
			AccessKeyId:     util.GetEnv("ALIYUN_SMS_ACCESS_KEY_ID"),
			AccessKeySecret: util.GetEnv("ALIYUN_SMS_ACCESS_KEY_SECRET"),
			SignName:        util.GetEnv("ALIYUN_SMS_SIGN_NAME"),
			TemplateCode:    util.GetEnv("ALIYUN_SMS_TEMPLATE_CODE"),
			Endpoint:        util.GetEnv("ALIYUN_SMS_ENDPOINT"),
		},
		Cache: cache.Config{
			Type: util.GetEnvDefault("CACHE_TYPE", "local"),
			Redis: cache.RedisConfig{
				Addr:         util.GetEnvDefault("REDIS_ADDR", "localhost:6379"),
				Password:     util.GetEnv("REDIS_PASSWORD"),
				DB:           int(util.GetIntEnv("REDIS_DB")),
				PoolSize:     int(util.GetIntEnv("REDIS_POOL_SIZE")),
				DialTimeout:  util.GetDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
				ReadTimeout:  util.GetDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
				WriteTimeout: util.GetDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			},
			Local: cache.LocalConfig{
				DefaultExpiration: util.GetDurationEnv("LOCAL_CACHE_DEFAULT_EXPIRATION", 5*time.Minute),
				CleanupInterval:   util.GetDurationEnv("LOCAL_CACHE_CLEANUP_INTERVAL", 10*time.Minute),
			},
		},
	}
	return nil
}
