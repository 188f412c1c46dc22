package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// parseEnv overlays Config fields from environment variables.
//
// Recognized variables:
//
//	ADDRESS                         HTTP bind address (e.g., ":8080")
//	DATABASE_DSN                    PostgreSQL DSN
//	REDIS_ADDR / REDIS_PASSWORD     cache backend (empty address = disabled)
//	ACCESS_TOKEN_TTL_SECONDS        access token lifetime
//	REFRESH_TOKEN_TTL_SECONDS       refresh token lifetime (0 = legacy
//	                                single-token mode)
//	REFRESH_RENEWAL_WINDOW_SECONDS  minimum refresh remainder before rotation
//	DEFAULT_LIST_LIMIT              size of the public default music list
//	DEFAULT_LIST_CACHE_TTL_SECONDS  cache lifetime of the default list
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("ADDRESS"); ok {
		config.EndpointAddr = v
	}
	if v, ok := os.LookupEnv("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		config.RedisAddr = v
	}
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok {
		config.RedisPassword = v
	}
	if d, ok := lookupEnvSeconds("ACCESS_TOKEN_TTL_SECONDS"); ok {
		config.AccessTokenTTL = d
	}
	if d, ok := lookupEnvSeconds("REFRESH_TOKEN_TTL_SECONDS"); ok {
		config.RefreshTokenTTL = d
	}
	if d, ok := lookupEnvSeconds("REFRESH_RENEWAL_WINDOW_SECONDS"); ok {
		config.RefreshRenewalWindow = d
	}
	if v, ok := os.LookupEnv("DEFAULT_LIST_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.DefaultListLimit = n
		} else {
			log.Printf("invalid integer value for DEFAULT_LIST_LIMIT: %s", v)
		}
	}
	if d, ok := lookupEnvSeconds("DEFAULT_LIST_CACHE_TTL_SECONDS"); ok {
		config.DefaultListCacheTTL = d
	}
}

// lookupEnvSeconds reads an integer environment variable expressed in seconds
// and converts it to a time.Duration. Malformed values are logged and skipped.
func lookupEnvSeconds(key string) (time.Duration, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid integer value for %s: %s", key, v)
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}
