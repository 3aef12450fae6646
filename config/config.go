// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath = pflag.String("config", ".", "Directory containing config.toml")
	migrate    = pflag.Bool("migrate", false, "Migrates the database schema and exits")

	validLogLevels  = []string{"debug", "info", "warn", "error", "fatal"}
	validDBTypes    = []string{"sqlite", "postgres", "mysql"}
	validCacheTypes = []string{"memory", "redis"}
)

func genSecret() (string, error) {
	b := make([]byte, 64)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret, %w", err)
	}

	return hex.EncodeToString(b), nil
}

// MigrateOnly reports whether the app was started with --migrate
func MigrateOnly() bool {
	return *migrate
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	SetDefaults()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		// Everything can come from the environment so a missing file is fine
		fmt.Println("[WARNING]: config.toml not found, using defaults and environment variables only")
	}

	if v.GetString("jwt.secret") == "" {
		secret, err := genSecret()
		if err != nil {
			return err
		}

		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + secret + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	return Validate()
}

// SetDefaults binds environment variables and sets the default values
// of every key. It's split out of Setup so tests can use the same defaults
// without a config file.
func SetDefaults() {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")

	v.BindEnv("host.port", "HOST_PORT")
	v.BindEnv("host.domain", "HOST_DOMAIN")
	v.BindEnv("host.cors", "HOST_CORS")

	v.BindEnv("host.ssl.enabled", "HOST_SSL_ENABLED")
	v.BindEnv("host.ssl.certificate_path", "HOST_SSL_CERTIFICATE_PATH")
	v.BindEnv("host.ssl.certificate_key_path", "HOST_SSL_CERTIFICATE_KEY_PATH")

	v.BindEnv("jwt.secret", "JWT_SECRET")

	v.BindEnv("db.type", "DB_TYPE")
	v.BindEnv("db.path", "DB_PATH")
	v.BindEnv("db.dsn", "DATABASE_URL")

	v.BindEnv("razorpay.key_id", "RAZORPAY_KEY_ID")
	v.BindEnv("razorpay.key_secret", "RAZORPAY_KEY_SECRET")

	v.BindEnv("mail.host", "MAIL_HOST")
	v.BindEnv("mail.port", "MAIL_PORT")
	v.BindEnv("mail.username", "MAIL_USERNAME")
	v.BindEnv("mail.password", "EMAIL_API_KEY")
	v.BindEnv("mail.sender_address", "MAIL_SENDER_ADDRESS")

	v.BindEnv("reset.url", "CLIENT_URL")

	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	v.BindEnv("aws.access_key", "AWS_ACCESS_KEY_ID")
	v.BindEnv("aws.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("aws.region", "AWS_REGION")
	v.BindEnv("aws.bucket", "AWS_BUCKET")
	v.BindEnv("aws.endpoint", "AWS_ENDPOINT")

	v.BindEnv("turnstile.enabled", "TURNSTILE_ENABLED")
	v.BindEnv("turnstile.secret_token", "TURNSTILE_SECRET_TOKEN")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 3000)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.cors", "http://localhost:3000")
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("session.ttl", "1h")
	v.SetDefault("reset.ttl", "1h")
	v.SetDefault("reset.url", "http://localhost:3000")

	v.SetDefault("db.type", "sqlite")
	v.SetDefault("db.path", "database.db")

	v.SetDefault("security.rate_limit", 10)

	v.SetDefault("premium.price", 50000)
	v.SetDefault("premium.currency", "INR")

	v.SetDefault("mail.port", 587)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("reports.enabled", false)
	v.SetDefault("reports.link_ttl", "1h")

	v.SetDefault("cleanup.schedule", "@hourly")

	v.SetDefault("turnstile.enabled", false)
}

// Validate checks the loaded values and returns the first problem found
func Validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if v.GetDuration("session.ttl") <= 0 {
		return errors.New("session.ttl must be a positive duration")
	}

	if v.GetDuration("reset.ttl") <= 0 {
		return errors.New("reset.ttl must be a positive duration")
	}

	switch v.GetString("db.type") {
	case "sqlite":
		if v.GetString("db.path") == "" {
			return errors.New("db.path can't be empty")
		}
	case "postgres", "mysql":
		if v.GetString("db.dsn") == "" {
			return errors.New("db.dsn can't be empty")
		}
	}

	if !slices.Contains(validDBTypes, v.GetString("db.type")) {
		return errors.New("invalid database type provided")
	}

	if v.GetInt64("premium.price") <= 0 {
		return errors.New("premium.price must be bigger than 0")
	}

	if v.GetString("premium.currency") == "" {
		return errors.New("premium.currency can't be empty")
	}

	if v.GetString("razorpay.key_id") == "" || v.GetString("razorpay.key_secret") == "" {
		fmt.Println("[WARNING]: Razorpay keys are missing. Premium purchases will fail")
	}

	if v.GetString("mail.host") == "" {
		fmt.Println("[WARNING]: mail.host is empty. Password reset emails can't be delivered")
	} else if v.GetString("mail.sender_address") == "" {
		return errors.New("mail.sender_address can't be empty when mail.host is set")
	}

	if !slices.Contains(validCacheTypes, v.GetString("cache.type")) {
		return errors.New("invalid cache type provided")
	}

	if v.GetBool("reports.enabled") {
		if v.GetString("aws.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
		if v.GetString("aws.region") == "" {
			return errors.New("region can't be empty")
		}
	}

	if _, err := cron.ParseStandard(v.GetString("cleanup.schedule")); err != nil {
		return fmt.Errorf("invalid cleanup.schedule, %w", err)
	}

	if !v.GetBool("turnstile.enabled") {
		fmt.Println("[WARNING]: Cloudflare's turnstile is disabled. Some public endpoints won't be guarded against bots")
	} else if v.GetString("turnstile.secret_token") == "" {
		return errors.New("turnstile secret token is missing")
	}

	return nil
}
