package config

import (
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// RateLimitConfig configures the Redis token bucket guarding the write
// routes (cart, checkout, auth).
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 30),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "paris2024:rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if b := envInt("RATE_LIMIT_BURST", -1); b > 0 { def.Capacity = b }
	if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		def.RefillTokens = 1
		def.RefillInterval = every
	}
	if def.Capacity < 1 { def.Capacity = 1 }
	if def.RefillTokens < 1 { def.RefillTokens = 1 }
	if def.RefillInterval <= 0 { def.RefillInterval = time.Second }
	minTTL := 5 * def.RefillInterval
	if def.TTL < minTTL { def.TTL = minTTL }
	return def
}

func envStr(k, d string) string { if v := viper.GetString(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
	v := viper.GetString(k)
	if v == "" { return d }
	switch v {
	case "1","true","TRUE","True","yes","YES","on","ON": return true
	case "0","false","FALSE","False","no","NO","off","OFF": return false
	}
	return d
}
func envInt(k string, d int) int {
	v := viper.GetString(k); if v == "" { return d }
	if n, err := strconv.Atoi(v); err == nil { return n }
	return d
}
func envDur(k string, d time.Duration) time.Duration {
	v := viper.GetString(k); if v == "" { return d }
	if dur, err := time.ParseDuration(v); err == nil { return dur }
	return d
}
