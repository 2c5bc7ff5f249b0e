package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sendly-app/sendly/internal/flagx"
)

// loadDotEnv loads the file named by -E/-env-file, or ./.env when present.
// Variables already set in the process environment win over the file.
func loadDotEnv() error {
	if path := flagx.EnvFileFlag(); path != "" {
		return godotenv.Load(path)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// parseEnv overlays values from environment variables. Malformed numeric or
// duration values panic, matching how a broken config file is treated.
func parseEnv(config *Config) {
	if err := loadDotEnv(); err != nil {
		panic(fmt.Errorf("load .env: %w", err))
	}

	envString(&config.Environment, "APP_ENV")
	envString(&config.HTTPAddr, "HTTP_ADDR")
	envString(&config.AppURL, "APP_URL")
	envString(&config.DatabaseDSN, "DATABASE_URL")
	envString(&config.SecretKey, "JWT_SECRET")
	envDuration(&config.SessionValidityDuration, "SESSION_VALIDITY")
	envDuration(&config.PendingLoginValidityDuration, "PENDING_LOGIN_VALIDITY")
	envString(&config.CookieDomain, "COOKIE_DOMAIN")
	if v, ok := os.LookupEnv("COOKIE_SECURE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("COOKIE_SECURE: %w", err))
		}
		config.CookieSecure = b
	}
	if v, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok {
		config.AllowedOrigins = splitList(v)
	}
	envString(&config.SMTPHost, "SMTP_HOST")
	if v, ok := os.LookupEnv("SMTP_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("SMTP_PORT: %w", err))
		}
		config.SMTPPort = port
	}
	envString(&config.SMTPUser, "SMTP_USER")
	envString(&config.SMTPPassword, "SMTP_PASSWORD")
	envString(&config.SMTPFrom, "SMTP_FROM")
	envString(&config.S3RootUser, "S3_ROOT_USER")
	envString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envString(&config.S3PublicURL, "S3_PUBLIC_URL")
	envString(&config.TOTPIssuer, "TOTP_ISSUER")
	envDuration(&config.DispatchInterval, "DISPATCH_INTERVAL")
	envDuration(&config.SessionSweepInterval, "SESSION_SWEEP_INTERVAL")
	envString(&config.LogBackend, "LOG_BACKEND")
	envString(&config.LogFormat, "LOG_FORMAT")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	*dst = d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
