package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/sendly-app/sendly/internal/flagx"
	"github.com/sendly-app/sendly/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Absent fields keep
// whatever value the Config already holds.
type JsonConfig struct {
	Environment                  *string         `json:"environment"`
	HTTPAddr                     *string         `json:"http_addr"`
	AppURL                       *string         `json:"app_url"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	SessionValidityDuration      *timex.Duration `json:"session_validity_duration"`
	PendingLoginValidityDuration *timex.Duration `json:"pending_login_validity_duration"`
	CookieDomain                 *string         `json:"cookie_domain"`
	CookieSecure                 *bool           `json:"cookie_secure"`
	AllowedOrigins               []string        `json:"allowed_origins"`
	SMTPHost                     *string         `json:"smtp_host"`
	SMTPPort                     *int            `json:"smtp_port"`
	SMTPUser                     *string         `json:"smtp_user"`
	SMTPPassword                 *string         `json:"smtp_password"`
	SMTPFrom                     *string         `json:"smtp_from"`
	S3RootUser                   *string         `json:"s3_root_user"`
	S3RootPassword               *string         `json:"s3_root_password"`
	S3Bucket                     *string         `json:"s3_bucket"`
	S3Region                     *string         `json:"s3_region"`
	S3BaseEndpoint               *string         `json:"s3_base_endpoint"`
	S3PublicURL                  *string         `json:"s3_public_url"`
	TOTPIssuer                   *string         `json:"totp_issuer"`
	DispatchInterval             *timex.Duration `json:"dispatch_interval"`
	SessionSweepInterval         *timex.Duration `json:"session_sweep_interval"`
	LogBackend                   *string         `json:"log_backend"`
	LogFormat                    *string         `json:"log_format"`
}

// parseJson overlays values from the file named by -c/-config. Without the
// flag nothing is loaded; an unreadable or invalid file panics.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.Environment, c.Environment)
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.AppURL, c.AppURL)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.SessionValidityDuration, c.SessionValidityDuration)
	setDuration(&config.PendingLoginValidityDuration, c.PendingLoginValidityDuration)
	setString(&config.CookieDomain, c.CookieDomain)
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != nil {
		config.SMTPPort = *c.SMTPPort
	}
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicURL, c.S3PublicURL)
	setString(&config.TOTPIssuer, c.TOTPIssuer)
	setDuration(&config.DispatchInterval, c.DispatchInterval)
	setDuration(&config.SessionSweepInterval, c.SessionSweepInterval)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogFormat, c.LogFormat)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
