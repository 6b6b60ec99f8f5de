package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverOracle = "oracle"
	DriverSQLite = "sqlite"

	ProviderGoogleAI = "googleai"
	ProviderOllama   = "ollama"
	ProviderOpenAI   = "openai"
)

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	LLM     LLMConfig
	Auth    AuthConfig
	Session SessionConfig
	Logger  LoggerConfig
	Quiz    QuizConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DBConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Path     string // sqlite file, ":memory:" allowed
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type LLMConfig struct {
	Provider    string
	Server      string // ollama base url
	Model       string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
}

type AuthConfig struct {
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	ResetTokenTTL  time.Duration
}

type SessionConfig struct {
	TTL time.Duration
}

type LoggerConfig struct {
	Level string
	Env   string
}

type QuizConfig struct {
	MaxQuestions int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "quiz_tutor.db")
	v.SetDefault("db.port", 1521)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("llm.provider", ProviderOllama)
	v.SetDefault("llm.server", "http://localhost:11434")
	v.SetDefault("llm.model", "llama3")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 1)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("auth.access_token_ttl", "24h")
	v.SetDefault("auth.reset_token_ttl", "10m")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
	v.SetDefault("quiz.max_questions", 15)
}

// LoadConfig reads config.yaml (optional), a .env file (optional) and the environment.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../configs")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	cfg := fromViper(v)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		DB: DBConfig{
			Driver:   strings.ToLower(v.GetString("db.driver")),
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
			Path:     v.GetString("db.path"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			Server:      v.GetString("llm.server"),
			Model:       v.GetString("llm.model"),
			APIKey:      v.GetString("llm.api_key"),
			Timeout:     v.GetDuration("llm.timeout"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			Temperature: v.GetFloat64("llm.temperature"),
		},
		Auth: AuthConfig{
			JWTSecretKey:   v.GetString("auth.jwt_secret_key"),
			AccessTokenTTL: v.GetDuration("auth.access_token_ttl"),
			ResetTokenTTL:  v.GetDuration("auth.reset_token_ttl"),
		},
		Session: SessionConfig{
			TTL: v.GetDuration("session.ttl"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		Quiz: QuizConfig{
			MaxQuestions: v.GetInt("quiz.max_questions"),
		},
	}
}

// applyEnvOverrides honours the short variable names used by deployment manifests.
func applyEnvOverrides(cfg *Config) {
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		cfg.DB.Driver = strings.ToLower(driver)
	}
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		cfg.DB.DBName = dbname
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		cfg.DB.Path = path
	}
	if llmServer := os.Getenv("LLM_SERVER"); llmServer != "" {
		cfg.LLM.Server = llmServer
	}
	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		cfg.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		cfg.Redis.Password = redisPassword
	}
	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		cfg.Auth.JWTSecretKey = secret
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecretKey == "" {
		return errors.New("auth.jwt_secret_key (JWT_SECRET_KEY) is required")
	}
	switch c.DB.Driver {
	case DriverOracle, DriverSQLite:
	default:
		return fmt.Errorf("unsupported db.driver %q", c.DB.Driver)
	}
	switch c.LLM.Provider {
	case ProviderGoogleAI, ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported llm.provider %q", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("llm.timeout must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		return errors.New("llm.max_retries must not be negative")
	}
	if c.Quiz.MaxQuestions <= 0 {
		return errors.New("quiz.max_questions must be positive")
	}
	return nil
}
