package config

// Redis backs the rate limiter and the catalog response cache.  It is
// optional: when the server cannot be reached at startup NewRedisClient
// returns nil and both features are switched off.

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// NewRedisClient instantiates a Redis client using environment variables.
// Supported variables are:
//   REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//   REDIS_ADDR – host:port shorthand (takes precedence if both host/port and addr are set)
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS when "true" or "1"
//   REDIS_ENABLED – set to "false" to skip Redis entirely
// The returned client may be nil if a connection cannot be established.
func NewRedisClient() *redis.Client {
	host := viper.GetString("REDIS_HOST")
	port := viper.GetString("REDIS_PORT")
	addr := viper.GetString("REDIS_ADDR")
	if host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	if !envBool("REDIS_ENABLED", true) {
		return nil
	}
	pwd := viper.GetString("REDIS_PASSWORD")
	dbNum := envInt("REDIS_DB", 0)
	var tlsConf *tls.Config
	if tlsEnv := viper.GetString("REDIS_TLS"); strings.EqualFold(tlsEnv, "true") || tlsEnv == "1" {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  pwd,
		DB:        dbNum,
		TLSConfig: tlsConf,
	})
	// Ping the server with a short timeout.  Return nil on failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}