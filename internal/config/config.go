package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Upstream UpstreamConfig
	OAuth    OAuthConfig
	Delivery DeliveryConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	RateLimit     int
	RateWindowSec int
}

type RabbitMQConfig struct {
	URL               string
	Host              string
	Port              string
	User              string
	Password          string
	VHost             string
	DistributionQueue string
	PrefetchCount     int
}

// UpstreamConfig holds the base URLs for the collaborating services that
// provide publication content and location metadata.
type UpstreamConfig struct {
	DataManagementURL    string
	ChannelManagementURL string
	TimeoutSeconds       int
}

type OAuthConfig struct {
	TokenBufferSeconds int
}

type DeliveryConfig struct {
	TimeoutSeconds        int
	MaxRetries            int
	InitialBackoffSeconds int
}

func Load() (*Config, error) {
	var missing []string

	get := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			missing = append(missing, key)
		}
		return val
	}

	getInt := func(key string, fallback int) int {
		val := os.Getenv(key)
		if val == "" {
			return fallback
		}
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			return fallback
		}
		return n
	}

	config := &Config{
		Server: ServerConfig{
			Port: get("SERVER_PORT"),
			Host: get("SERVER_HOST"),
		},
		Redis: RedisConfig{
			Addr:          get("REDIS_ADDR"),
			Password:      os.Getenv("REDIS_PASSWORD"),
			DB:            getInt("REDIS_DB", 0),
			RateLimit:     getInt("THIRD_PARTY_RATE_LIMIT", 60),
			RateWindowSec: getInt("THIRD_PARTY_RATE_WINDOW_SECONDS", 60),
		},
		RabbitMQ: RabbitMQConfig{
			URL:               os.Getenv("RABBITMQ_URL"),
			Host:              get("RABBITMQ_HOST"),
			Port:              get("RABBITMQ_PORT"),
			User:              get("RABBITMQ_USER"),
			Password:          get("RABBITMQ_PASSWORD"),
			VHost:             get("RABBITMQ_VHOST"),
			DistributionQueue: get("RABBITMQ_DISTRIBUTION_QUEUE"),
			PrefetchCount:     getInt("RABBITMQ_PREFETCH_COUNT", 10),
		},
		Upstream: UpstreamConfig{
			DataManagementURL:    get("DATA_MANAGEMENT_URL"),
			ChannelManagementURL: get("CHANNEL_MANAGEMENT_URL"),
			TimeoutSeconds:       getInt("UPSTREAM_TIMEOUT_SECONDS", 10),
		},
		OAuth: OAuthConfig{
			TokenBufferSeconds: getInt("OAUTH_TOKEN_BUFFER_SECONDS", 60),
		},
		Delivery: DeliveryConfig{
			TimeoutSeconds:        getInt("DELIVERY_TIMEOUT_SECONDS", 30),
			MaxRetries:            getInt("DELIVERY_MAX_RETRIES", 3),
			InitialBackoffSeconds: getInt("DELIVERY_INITIAL_BACKOFF_SECONDS", 2),
		},
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return config, nil
}

func (c *RabbitMQConfig) ConnectionURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s%s",
		c.User, c.Password, c.Host, c.Port, c.VHost)
}

// TokenBuffer returns the safety margin subtracted from a token's reported
// expiry so a token is never used when it could expire mid-request.
func (c *OAuthConfig) TokenBuffer() time.Duration {
	return time.Duration(c.TokenBufferSeconds) * time.Second
}

func (c *UpstreamConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *RedisConfig) RateWindow() time.Duration {
	return time.Duration(c.RateWindowSec) * time.Second
}
