package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	liststr "minkyc/pkg/platform/strings"
)

// Backend names accepted by MINKYC_STORE and MINKYC_SEQUENCE.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Event sink names accepted by MINKYC_EVENTS.
const (
	SinkLog      = "log"
	SinkKafka    = "kafka"
	SinkRabbitMQ = "rabbitmq"
)

// Config is the full process configuration.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    RedisConfig
	Kafka    Kafka
	RabbitMQ RabbitMQ
	Identity Identity
	Auth     Auth
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

type Postgres struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is empty-URL when Redis is not configured.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SequenceKey  string
}

type Kafka struct {
	Brokers           []string
	ClientID          string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
}

type RabbitMQ struct {
	URL        string
	Exchange   string
	RoutingKey string
	MaxRetries int
}

// Identity selects the registry backends and addressing mode.
type Identity struct {
	Store    string
	Sequence string
	Events   []string
	// MultiIdentity derives addresses from owner and index; otherwise one identity per owner.
	MultiIdentity bool
	TxTimeout     time.Duration
}

type Auth struct {
	JWTSigningKey string
	Issuer        string
	TokenTTL      time.Duration
}

// FromEnv builds the configuration from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            env("MINKYC_ADDR", ":8080"),
			LogLevel:        env("LOG_LEVEL", "info"),
			LogFormat:       env("LOG_FORMAT", "json"),
			ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			ReadTimeout:     envDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    envDuration("HTTP_WRITE_TIMEOUT", 35*time.Second),
			IdleTimeout:     envDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		},
		Postgres: Postgres{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			SequenceKey:  env("REDIS_SEQUENCE_KEY", "minkyc:receipt_sequence"),
		},
		Kafka: Kafka{
			Brokers:           envList("KAFKA_BROKERS"),
			ClientID:          env("KAFKA_CLIENT_ID", "minkyc"),
			Topic:             env("KAFKA_VERIFICATION_TOPIC", "minkyc.identity.verified"),
			Partitions:        int32(envInt("KAFKA_TOPIC_PARTITIONS", 3)),
			ReplicationFactor: int16(envInt("KAFKA_TOPIC_REPLICATION", 1)),
		},
		RabbitMQ: RabbitMQ{
			URL:        os.Getenv("RABBITMQ_URL"),
			Exchange:   env("RABBITMQ_EXCHANGE", "identity"),
			RoutingKey: env("RABBITMQ_ROUTING_KEY", "identity.verified"),
			MaxRetries: envInt("RABBITMQ_MAX_RETRIES", 7),
		},
		Identity: Identity{
			Store:         env("MINKYC_STORE", BackendMemory),
			Sequence:      env("MINKYC_SEQUENCE", BackendMemory),
			Events:        envListDefault("MINKYC_EVENTS", []string{SinkLog}),
			MultiIdentity: env("IDENTITY_MULTI", "true") == "true",
			TxTimeout:     envDuration("IDENTITY_TX_TIMEOUT", 5*time.Second),
		},
		Auth: Auth{
			// Use a default for development - should be overridden in production
			JWTSigningKey: env("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:        env("JWT_ISSUER", "minkyc"),
			TokenTTL:      envDuration("JWT_TOKEN_TTL", 15*time.Minute),
		},
	}
}

// HasSink reports whether the named event sink is enabled.
func (i Identity) HasSink(name string) bool {
	for _, s := range i.Events {
		if s == name {
			return true
		}
	}
	return false
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envList(key string) []string {
	return liststr.SplitList(os.Getenv(key), ",")
}

func envListDefault(key string, fallback []string) []string {
	if out := envList(key); len(out) > 0 {
		return out
	}
	return fallback
}
