package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings are the application knobs. Connection strings stay with the
// Init* bootstraps.
type Settings struct {
	Port                string
	LogLevel            string
	JWTSecret           string
	JWTIssuer           string
	TokenTTL            time.Duration
	GCSBucket           string
	GCSPublicRead       bool
	PostingCacheTTL     time.Duration
	RecommendationLimit int
	MaxResumeBytes      int64
	AllowedOrigins      []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("jwt_issuer", "hirelink")
	v.SetDefault("token_ttl", "720h")
	v.SetDefault("gcs_public_read", true)
	v.SetDefault("posting_cache_ttl", "5m")
	v.SetDefault("recommendation_limit", 10)
	v.SetDefault("max_resume_bytes", 10<<20)
	v.SetDefault("ws_allowed_origins", "")
}

// NewViper returns a viper instance reading upper-case environment variables
// for every setting key.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadSettings reads settings from v. An optional config file must already
// be merged into v.
func LoadSettings(v *viper.Viper) (Settings, error) {
	s := Settings{
		Port:                v.GetString("port"),
		LogLevel:            v.GetString("log_level"),
		JWTSecret:           v.GetString("jwt_secret"),
		JWTIssuer:           v.GetString("jwt_issuer"),
		TokenTTL:            v.GetDuration("token_ttl"),
		GCSBucket:           v.GetString("gcs_bucket"),
		GCSPublicRead:       v.GetBool("gcs_public_read"),
		PostingCacheTTL:     v.GetDuration("posting_cache_ttl"),
		RecommendationLimit: v.GetInt("recommendation_limit"),
		MaxResumeBytes:      v.GetInt64("max_resume_bytes"),
		AllowedOrigins:      splitList(v.GetString("ws_allowed_origins")),
	}
	if s.JWTSecret == "" {
		return s, errors.New("JWT_SECRET is required")
	}
	if s.TokenTTL <= 0 {
		return s, errors.New("TOKEN_TTL must be positive")
	}
	if s.RecommendationLimit <= 0 {
		return s, errors.New("RECOMMENDATION_LIMIT must be positive")
	}
	return s, nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
