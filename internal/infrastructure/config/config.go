package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	pkgkafka "github.com/bibbank/origination/pkg/kafka"
	pkgpostgres "github.com/bibbank/origination/pkg/postgres"
)

// EnvConfigFile names an optional YAML file layered under the environment.
const EnvConfigFile = "ORIGINATION_CONFIG"

// Config holds all service configuration.
type Config struct {
	HTTPPort  int
	GRPCPort  int
	GRPC      GRPCConfig
	DB        DBConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Import    ImportConfig
	Telemetry TelemetryConfig
	LogLevel  string
	LogFormat string
}

// GRPCConfig holds optional gRPC transport settings. TLS is enabled only when
// both files are set.
type GRPCConfig struct {
	TLSCertFile string
	TLSKeyFile  string
	Reflection  bool
}

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// KafkaConfig holds Kafka broker configuration.
type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
	EventsTopic   string
	ImportTopic   string
	TLS           bool
	TLSCAFile     string
	SASLEnabled   bool
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
}

// RedisConfig holds the import job store connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	JobTTL   time.Duration
}

// AuthConfig selects how bearer tokens are verified. The first non-empty of
// PublicKey, PublicKeyFile and Secret wins.
type AuthConfig struct {
	PublicKey     string
	PublicKeyFile string
	Secret        string
	Issuer        string
}

// ImportConfig drives the scheduled import. An empty Schedule disables it.
type ImportConfig struct {
	Schedule     string
	CustomerFile string
	LoanFile     string
}

// TelemetryConfig holds OpenTelemetry configuration.
type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

// keys maps configuration keys to the environment variables they read.
var keys = map[string]string{
	"http.port":                "HTTP_PORT",
	"grpc.port":                "GRPC_PORT",
	"grpc.tls_cert_file":       "GRPC_TLS_CERT_FILE",
	"grpc.tls_key_file":        "GRPC_TLS_KEY_FILE",
	"grpc.reflection":          "GRPC_REFLECTION",
	"db.host":                  "DB_HOST",
	"db.port":                  "DB_PORT",
	"db.user":                  "DB_USER",
	"db.password":              "DB_PASSWORD",
	"db.name":                  "DB_NAME",
	"db.sslmode":               "DB_SSLMODE",
	"db.max_conns":             "DB_MAX_CONNS",
	"db.min_conns":             "DB_MIN_CONNS",
	"kafka.brokers":            "KAFKA_BROKERS",
	"kafka.consumer_group":     "KAFKA_CONSUMER_GROUP",
	"kafka.events_topic":       "KAFKA_EVENTS_TOPIC",
	"kafka.import_topic":       "KAFKA_IMPORT_TOPIC",
	"kafka.tls":                "KAFKA_TLS",
	"kafka.tls_ca_file":        "KAFKA_TLS_CA_FILE",
	"kafka.sasl.enabled":       "KAFKA_SASL_ENABLED",
	"kafka.sasl.mechanism":     "KAFKA_SASL_MECHANISM",
	"kafka.sasl.username":      "KAFKA_SASL_USERNAME",
	"kafka.sasl.password":      "KAFKA_SASL_PASSWORD",
	"redis.addr":               "REDIS_ADDR",
	"redis.password":           "REDIS_PASSWORD",
	"redis.db":                 "REDIS_DB",
	"redis.job_ttl":            "REDIS_JOB_TTL",
	"auth.jwt_public_key":      "JWT_PUBLIC_KEY",
	"auth.jwt_public_key_file": "JWT_PUBLIC_KEY_FILE",
	"auth.jwt_secret":          "JWT_SECRET",
	"auth.jwt_issuer":          "JWT_ISSUER",
	"import.schedule":          "IMPORT_SCHEDULE",
	"import.customer_file":     "IMPORT_CUSTOMER_FILE",
	"import.loan_file":         "IMPORT_LOAN_FILE",
	"telemetry.otlp_endpoint":  "OTEL_EXPORTER_OTLP_ENDPOINT",
	"telemetry.service_name":   "OTEL_SERVICE_NAME",
	"log.level":                "LOG_LEVEL",
	"log.format":               "LOG_FORMAT",
}

// SetDefaults registers default values and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8090)
	v.SetDefault("grpc.port", 9090)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "origination")
	v.SetDefault("db.name", "origination")
	v.SetDefault("db.sslmode", "require")
	v.SetDefault("db.max_conns", 20)
	v.SetDefault("db.min_conns", 5)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.consumer_group", "origination-import-worker")
	v.SetDefault("kafka.events_topic", "origination.events")
	v.SetDefault("kafka.import_topic", "origination.import-jobs")
	v.SetDefault("kafka.sasl.mechanism", "PLAIN")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.job_ttl", 7*24*time.Hour)
	v.SetDefault("auth.jwt_issuer", "bib-identity")
	v.SetDefault("import.customer_file", "customer_data.xlsx")
	v.SetDefault("import.loan_file", "loan_data.xlsx")
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.service_name", "origination-service")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	for key, env := range keys {
		_ = v.BindEnv(key, env) //nolint:errcheck // only fails on an empty key
	}
}

// Load reads configuration from defaults, the optional file named by
// ORIGINATION_CONFIG and the environment, in increasing precedence.
func Load() (Config, error) {
	v := viper.New()
	SetDefaults(v)
	_ = v.BindEnv("config_file", EnvConfigFile) //nolint:errcheck // non-empty key
	return FromViper(v, v.GetString("config_file"))
}

// FromViper builds a Config from an already populated viper instance, first
// merging configFile when it is set. Callers that bind CLI flags use it directly.
func FromViper(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	cfg := Config{
		HTTPPort: v.GetInt("http.port"),
		GRPCPort: v.GetInt("grpc.port"),
		GRPC: GRPCConfig{
			TLSCertFile: v.GetString("grpc.tls_cert_file"),
			TLSKeyFile:  v.GetString("grpc.tls_key_file"),
			Reflection:  v.GetBool("grpc.reflection"),
		},
		DB: DBConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
			MaxConns: v.GetInt32("db.max_conns"),
			MinConns: v.GetInt32("db.min_conns"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(v.GetStringSlice("kafka.brokers")),
			ConsumerGroup: v.GetString("kafka.consumer_group"),
			EventsTopic:   v.GetString("kafka.events_topic"),
			ImportTopic:   v.GetString("kafka.import_topic"),
			TLS:           v.GetBool("kafka.tls"),
			TLSCAFile:     v.GetString("kafka.tls_ca_file"),
			SASLEnabled:   v.GetBool("kafka.sasl.enabled"),
			SASLMechanism: v.GetString("kafka.sasl.mechanism"),
			SASLUsername:  v.GetString("kafka.sasl.username"),
			SASLPassword:  v.GetString("kafka.sasl.password"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			JobTTL:   v.GetDuration("redis.job_ttl"),
		},
		Auth: AuthConfig{
			PublicKey:     v.GetString("auth.jwt_public_key"),
			PublicKeyFile: v.GetString("auth.jwt_public_key_file"),
			Secret:        v.GetString("auth.jwt_secret"),
			Issuer:        v.GetString("auth.jwt_issuer"),
		},
		Import: ImportConfig{
			Schedule:     v.GetString("import.schedule"),
			CustomerFile: v.GetString("import.customer_file"),
			LoanFile:     v.GetString("import.loan_file"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: v.GetString("telemetry.otlp_endpoint"),
			ServiceName:  v.GetString("telemetry.service_name"),
		},
		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
	}
	return cfg, nil
}

// Validate checks required configuration values.
func (c Config) Validate() error {
	var errs []error
	if c.DB.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD is required"))
	}
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required"))
	}
	if c.Redis.JobTTL <= 0 {
		errs = append(errs, fmt.Errorf("REDIS_JOB_TTL must be positive, got %s", c.Redis.JobTTL))
	}
	if (c.GRPC.TLSCertFile == "") != (c.GRPC.TLSKeyFile == "") {
		errs = append(errs, errors.New("GRPC_TLS_CERT_FILE and GRPC_TLS_KEY_FILE must be set together"))
	}
	if c.DB.MinConns > c.DB.MaxConns {
		errs = append(errs, fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DB.MinConns, c.DB.MaxConns))
	}
	return errors.Join(errs...)
}

// HTTPAddr returns the HTTP listen address.
func (c Config) HTTPAddr() string {
	return net.JoinHostPort("", strconv.Itoa(c.HTTPPort))
}

// GRPCAddr returns the gRPC listen address.
func (c Config) GRPCAddr() string {
	return net.JoinHostPort("", strconv.Itoa(c.GRPCPort))
}

// Postgres converts the database settings for pkg/postgres.
func (c DBConfig) Postgres() pkgpostgres.Config {
	return pkgpostgres.Config{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		Database: c.Name,
		SSLMode:  c.SSLMode,
		MaxConns: c.MaxConns,
		MinConns: c.MinConns,
	}
}

// Client converts the broker settings for pkg/kafka.
func (c KafkaConfig) Client() pkgkafka.Config {
	return pkgkafka.Config{
		Brokers:       c.Brokers,
		ConsumerGroup: c.ConsumerGroup,
		TLS:           c.TLS,
		TLSCAFile:     c.TLSCAFile,
		SASLEnabled:   c.SASLEnabled,
		SASLMechanism: c.SASLMechanism,
		SASLUsername:  c.SASLUsername,
		SASLPassword:  c.SASLPassword,
	}
}

// splitList accepts both YAML lists and comma-separated environment values.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
