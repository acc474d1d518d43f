package bootstrap

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

type Config struct {
	ServerPort         string        `mapstructure:"SERVER_PORT"`
	AuthorityTransport string        `mapstructure:"AUTHORITY_TRANSPORT"`
	AuthorityUrl       string        `mapstructure:"AUTHORITY_URL"`
	AuthorityGrpcAddr  string        `mapstructure:"AUTHORITY_GRPC_ADDR"`
	AuthorityTimeout   time.Duration `mapstructure:"AUTHORITY_TIMEOUT"`
	AuthorityHttpPort  string        `mapstructure:"AUTHORITY_HTTP_PORT"`
	AuthorityGrpcPort  string        `mapstructure:"AUTHORITY_GRPC_PORT"`
	RedisUrl           string        `mapstructure:"REDIS_URL"`
	MongoUri           string        `mapstructure:"MONGO_URI"`
	MongoDatabase      string        `mapstructure:"MONGO_DATABASE"`
	SessionTTL         time.Duration `mapstructure:"SESSION_TTL"`
	IsLocalCors        bool          `mapstructure:"LOCAL_CORS"`
	LogDevelopment     bool          `mapstructure:"LOG_DEVELOPMENT"`
}

var defaults = map[string]any{
	"SERVER_PORT":         ":8080",
	"AUTHORITY_TRANSPORT": TransportHTTP,
	"AUTHORITY_URL":       "http://localhost:8081",
	"AUTHORITY_GRPC_ADDR": "localhost:8082",
	"AUTHORITY_TIMEOUT":   "5s",
	"AUTHORITY_HTTP_PORT": ":8081",
	"AUTHORITY_GRPC_PORT": ":8082",
	"REDIS_URL":           "localhost:6379",
	"MONGO_URI":           "mongodb://localhost:27017",
	"MONGO_DATABASE":      "chessboard",
	"SESSION_TTL":         "24h",
	"LOCAL_CORS":          false,
	"LOG_DEVELOPMENT":     false,
}

// Setup reads cfgPath if it exists; environment variables override file values.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.AuthorityTransport != TransportHTTP && cfg.AuthorityTransport != TransportGRPC {
		return nil, errors.New("AUTHORITY_TRANSPORT must be http or grpc")
	}
	if cfg.AuthorityTimeout <= 0 {
		return nil, errors.New("AUTHORITY_TIMEOUT must be positive")
	}

	return &cfg, nil
}
