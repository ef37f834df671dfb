package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DB     DBConfig
	MinIO  MinIOConfig
	JWT    JWTConfig
	Server ServerConfig
	LDAP   LDAPConfig
	Audit  AuditConfig
}

type DBConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type MinIOConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type JWTConfig struct {
	Secret            string
	ExpirationMinutes int
	RefreshTTL        time.Duration
}

type ServerConfig struct {
	Port        string
	BodyLimit   int
	CORSOrigins string
}

type LDAPConfig struct {
	Enabled      bool
	URL          string
	StartTLS     bool
	BindDN       string
	BindPassword string
	SearchBase   string
	UserFilter   string
	EmailField   string
	NameField    string
}

type AuditConfig struct {
	QueueSize      int
	ExportInterval time.Duration
}

func Load() *Config {
	return &Config{
		DB: DBConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Path:     getEnv("DB_PATH", "aizer.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "aizer"),
			Password: getEnv("DB_PASSWORD", "aizer_secret"),
			Name:     getEnv("DB_NAME", "aizer"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		MinIO: MinIOConfig{
			Enabled:   getEnvAsBool("MINIO_ENABLED", false),
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "aizer"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "aizer_secret"),
			Bucket:    getEnv("MINIO_BUCKET", "aizer-audit"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationMinutes: getEnvAsInt("JWT_EXPIRATION_MINUTES", 15),
			RefreshTTL:        getEnvAsDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			BodyLimit:   getEnvAsInt("SERVER_BODY_LIMIT", 1*1024*1024),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		},
		LDAP: LDAPConfig{
			Enabled:      getEnvAsBool("LDAP_ENABLED", false),
			URL:          getEnv("LDAP_URL", "ldap://localhost:389"),
			StartTLS:     getEnvAsBool("LDAP_START_TLS", false),
			BindDN:       getEnv("LDAP_BIND_DN", ""),
			BindPassword: getEnv("LDAP_BIND_PASSWORD", ""),
			SearchBase:   getEnv("LDAP_SEARCH_BASE", ""),
			UserFilter:   getEnv("LDAP_USER_FILTER", "(mail=%s)"),
			EmailField:   getEnv("LDAP_EMAIL_FIELD", "mail"),
			NameField:    getEnv("LDAP_NAME_FIELD", "displayName"),
		},
		Audit: AuditConfig{
			QueueSize:      getEnvAsInt("AUDIT_QUEUE_SIZE", 1000),
			ExportInterval: getEnvAsDuration("AUDIT_EXPORT_INTERVAL", 1*time.Hour),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
