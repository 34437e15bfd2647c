package config

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Auth         AuthConfig         `yaml:"auth"`
	Verification VerificationConfig `yaml:"verification"`
	SMTP         SMTPConfig         `yaml:"smtp"`
	Logger       LoggerConfig       `yaml:"logger"`
}

type ServerConfig struct {
	Port         string `yaml:"port"`
	Host         string `yaml:"host"`
	ReadTimeout  int    `yaml:"readTimeout"`  // in seconds
	WriteTimeout int    `yaml:"writeTimeout"` // in seconds
}

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	DBName       string `yaml:"dbname"`
	SSLMode      string `yaml:"sslmode"`
	MaxIdleConns int    `yaml:"maxIdleConns"`
	MaxOpenConns int    `yaml:"maxOpenConns"`
	MaxLifetime  int    `yaml:"maxLifetime"` // in minutes
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret         string   `yaml:"jwtSecret"`
	AccessTokenTTL    int      `yaml:"accessTokenTTL"`    // in minutes
	RefreshTokenTTL   int      `yaml:"refreshTokenTTL"`   // in hours
	RevocationBackend string   `yaml:"revocationBackend"` // "postgres" or "redis"
	PublicPrefixes    []string `yaml:"publicPrefixes"`
}

type VerificationConfig struct {
	CodeTTL      int    `yaml:"codeTTL"` // in minutes
	CodeLength   int    `yaml:"codeLength"`
	CodeAlphabet string `yaml:"codeAlphabet"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type LoggerConfig struct {
	Level      string `yaml:"level"`
	OutputPath string `yaml:"outputPath"`
}

var (
	config *Config
	once   sync.Once
)

// Load reads the configuration file and returns a Config struct
func Load(configPath string) (*Config, error) {
	var loadErr error
	once.Do(func() {
		cfg := &Config{}

		data, err := os.ReadFile(configPath)
		if err != nil {
			loadErr = err
			return
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			loadErr = err
			return
		}

		applyDefaults(cfg)
		applyEnvOverrides(cfg)

		if cfg.Auth.JWTSecret == "" {
			loadErr = errors.New("auth.jwtSecret must be set")
			return
		}

		config = cfg
	})

	if loadErr != nil {
		return nil, loadErr
	}
	return config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	if config == nil {
		panic("Config not loaded")
	}
	return config
}

func applyDefaults(cfg *Config) {
	if cfg.Auth.AccessTokenTTL == 0 {
		cfg.Auth.AccessTokenTTL = 15 // minutes
	}
	if cfg.Auth.RefreshTokenTTL == 0 {
		cfg.Auth.RefreshTokenTTL = 24 * 7 // hours
	}
	if cfg.Auth.RevocationBackend == "" {
		cfg.Auth.RevocationBackend = "postgres"
	}
	if len(cfg.Auth.PublicPrefixes) == 0 {
		cfg.Auth.PublicPrefixes = []string{
			"/auth/register",
			"/auth/login",
			"/auth/refresh",
			"/auth/forgot-password",
			"/auth/reset-password",
			"/auth/verify-email",
			"/health",
			"/ready",
		}
	}
	if cfg.Verification.CodeTTL == 0 {
		cfg.Verification.CodeTTL = 5 // minutes
	}
	if cfg.Verification.CodeLength == 0 {
		cfg.Verification.CodeLength = 6
	}
	if cfg.Verification.CodeAlphabet == "" {
		cfg.Verification.CodeAlphabet = "0123456789"
	}
}

func applyEnvOverrides(cfg *Config) {
	if envPort := os.Getenv("SERVER_PORT"); envPort != "" {
		cfg.Server.Port = envPort
	}
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		cfg.Database.Port = dbPort
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPass := os.Getenv("DB_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Database.DBName = dbName
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cfg.Redis.Addr = redisAddr
	}
	if redisPass := os.Getenv("REDIS_PASSWORD"); redisPass != "" {
		cfg.Redis.Password = redisPass
	}
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		cfg.Auth.JWTSecret = jwtSecret
	}
	if backend := os.Getenv("REVOCATION_BACKEND"); backend != "" {
		cfg.Auth.RevocationBackend = backend
	}
	if smtpHost := os.Getenv("SMTP_HOST"); smtpHost != "" {
		cfg.SMTP.Host = smtpHost
	}
	if smtpPort := os.Getenv("SMTP_PORT"); smtpPort != "" {
		cfg.SMTP.Port = smtpPort
	}
	if smtpUser := os.Getenv("SMTP_USER"); smtpUser != "" {
		cfg.SMTP.User = smtpUser
	}
	if smtpPass := os.Getenv("SMTP_PASS"); smtpPass != "" {
		cfg.SMTP.Password = smtpPass
	}
}

// AccessTokenDuration returns the configured access token lifetime
func (c *AuthConfig) AccessTokenDuration() time.Duration {
	return time.Duration(c.AccessTokenTTL) * time.Minute
}

// RefreshTokenDuration returns the configured refresh token lifetime
func (c *AuthConfig) RefreshTokenDuration() time.Duration {
	return time.Duration(c.RefreshTokenTTL) * time.Hour
}

// CodeDuration returns the configured verification code lifetime
func (c *VerificationConfig) CodeDuration() time.Duration {
	return time.Duration(c.CodeTTL) * time.Minute
}

// IsPublicPath reports whether the path matches a configured public prefix
func (c *AuthConfig) IsPublicPath(path string) bool {
	for _, prefix := range c.PublicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return "postgresql://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.DBName + "?sslmode=" + c.SSLMode
}
