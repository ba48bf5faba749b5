package config

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	Data       DataConfig
	Generation GenerationConfig
	Session    SessionConfig
	Redis      RedisConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LoggerConfig struct {
	Level string
	Env   string
}

// DataConfig locates the directory holding the annotated-record files.
type DataConfig struct {
	Dir string
}

// GenerationConfig carries the defaults embedded into the prompts.
type GenerationConfig struct {
	NumWords     int
	NumQuestions int
}

// SessionConfig selects the session store backend and its TTL.
type SessionConfig struct {
	Store string
	TTL   time.Duration
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("server.port", 8090)
	viper.SetDefault("server.read_timeout", 20)
	viper.SetDefault("server.write_timeout", 20)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.env", "development")
	viper.SetDefault("data.dir", ".")
	viper.SetDefault("generation.num_words", 1000)
	viper.SetDefault("generation.num_questions", 10)
	viper.SetDefault("session.store", SessionStoreMemory)
	viper.SetDefault("session.ttl", 24)
	viper.SetDefault("redis.db", 0)

	viper.AutomaticEnv()

	// A missing config file is fine; the defaults describe a working
	// single-user setup in the current directory.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
		Data: DataConfig{
			Dir: viper.GetString("data.dir"),
		},
		Generation: GenerationConfig{
			NumWords:     viper.GetInt("generation.num_words"),
			NumQuestions: viper.GetInt("generation.num_questions"),
		},
		Session: SessionConfig{
			Store: viper.GetString("session.store"),
			TTL:   viper.GetDuration("session.ttl") * time.Hour,
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
	}

	// Override with environment variables if set
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		config.Data.Dir = dir
	}
	if store := os.Getenv("SESSION_STORE"); store != "" {
		config.Session.Store = store
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logger.Level = level
	}
	if env := os.Getenv("ENV"); env != "" {
		config.Logger.Env = env
	}

	return config, nil
}
