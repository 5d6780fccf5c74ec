package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/appli/internal/flagx"
	"github.com/dmitrijs2005/appli/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "15m" and a number of seconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP    string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC    string         `json:"endpoint_addr_grpc"`
	DatabaseDSN         string         `json:"database_dsn"`
	SecretKey           string         `json:"secret_key"`
	AccessTokenLifetime timex.Duration `json:"access_token_lifetime"`
	CookieSecure        bool           `json:"cookie_secure"`
	AllowedOrigins      []string       `json:"allowed_origins"`
	LogLevel            string         `json:"log_level"`
	S3RootUser          string         `json:"s3_root_user"`
	S3RootPassword      string         `json:"s3_root_password"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
}

// parseJson overlays values from the file named by -c/-config (or
// $APPLI_CONFIG). Keys missing from the file keep their current value.
func parseJson(config *Config) error {
	path := flagx.ConfigPath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// Start from the current values so absent keys are left untouched.
	c := &JsonConfig{
		EndpointAddrHTTP:    config.EndpointAddrHTTP,
		EndpointAddrGRPC:    config.EndpointAddrGRPC,
		DatabaseDSN:         config.DatabaseDSN,
		SecretKey:           config.SecretKey,
		AccessTokenLifetime: timex.Duration{Duration: config.AccessTokenLifetime},
		CookieSecure:        config.CookieSecure,
		AllowedOrigins:      config.AllowedOrigins,
		LogLevel:            config.LogLevel,
		S3RootUser:          config.S3RootUser,
		S3RootPassword:      config.S3RootPassword,
		S3Bucket:            config.S3Bucket,
		S3Region:            config.S3Region,
		S3BaseEndpoint:      config.S3BaseEndpoint,
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.EndpointAddrGRPC = c.EndpointAddrGRPC
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenLifetime = c.AccessTokenLifetime.Duration
	config.CookieSecure = c.CookieSecure
	config.AllowedOrigins = c.AllowedOrigins
	config.LogLevel = c.LogLevel
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	return nil
}
