package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go-online-store/internal/database"
	"go-online-store/internal/pagination"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	DatabaseDriver          string
	DatabaseURL             string
	DBMaxOpenConns          int
	DBMaxIdleConns          int
	AutoMigrate             bool
	JWTSecret               string
	JWTAccessTTL            time.Duration
	JWTRefreshTTL           time.Duration
	SecureCookies           bool
	CORSOrigins             []string
	RateLimitRPM            int
	AuthRateLimitRPM        int
	ProductPagination       pagination.Kind
	UserPagination          pagination.Kind
	PageSize                int
	CatalogPageSize         int
	MaxPageSize             int
	StreamMaxDuration       time.Duration
	StreamIdleTimeout       time.Duration
	StreamHeartbeat         time.Duration
	DocsPath                string
	DocsRoute               string
	SwaggerRoute            string
	LogLevel                string
	LogFormat               string
	AdminUsername           string
	AdminPassword           string
}

// Load reads configuration from the environment, after merging in a .env
// file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		DatabaseDriver:          getEnv("DATABASE_DRIVER", database.DriverSQLite),
		DatabaseURL:             getEnv("DATABASE_URL", "file:store.db"),
		DBMaxOpenConns:          getInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:          getInt("DB_MAX_IDLE_CONNS", 5),
		AutoMigrate:             getBool("AUTO_MIGRATE", true),
		JWTSecret:               strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTAccessTTL:            getDuration("JWT_ACCESS_TTL", 15*time.Minute),
		JWTRefreshTTL:           getDuration("JWT_REFRESH_TTL", 168*time.Hour),
		SecureCookies:           getBool("SECURE_COOKIES", false),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
		ProductPagination:       pagination.Kind(getEnv("PRODUCT_PAGINATION", string(pagination.PageNumber))),
		UserPagination:          pagination.Kind(getEnv("USER_PAGINATION", string(pagination.LimitOffset))),
		PageSize:                getInt("PAGE_SIZE", pagination.DefaultPageSize),
		CatalogPageSize:         getInt("CATALOG_PAGE_SIZE", 5),
		MaxPageSize:             getInt("MAX_PAGE_SIZE", pagination.DefaultMaxPageSize),
		StreamMaxDuration:       getDuration("STREAM_MAX_DURATION", time.Hour),
		StreamIdleTimeout:       getDuration("STREAM_IDLE_TIMEOUT", 2*time.Minute),
		StreamHeartbeat:         getDuration("STREAM_HEARTBEAT", 30*time.Second),
		DocsPath:                getEnv("DOCS_PATH", "./docs/openapi.yaml"),
		DocsRoute:               getEnv("DOCS_ROUTE", "/openapi.yaml"),
		SwaggerRoute:            getEnv("SWAGGER_ROUTE", "/swagger"),
		LogLevel:                strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:               strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
		AdminUsername:           strings.TrimSpace(os.Getenv("ADMIN_USERNAME")),
		AdminPassword:           os.Getenv("ADMIN_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.DatabaseDriver != database.DriverPostgres && c.DatabaseDriver != database.DriverSQLite {
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q", database.DriverPostgres, database.DriverSQLite)
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL cannot be empty")
	}

	for key, kind := range map[string]pagination.Kind{
		"PRODUCT_PAGINATION": c.ProductPagination,
		"USER_PAGINATION":    c.UserPagination,
	} {
		switch kind {
		case pagination.PageNumber, pagination.LimitOffset, pagination.Cursor:
		default:
			return fmt.Errorf("%s must be one of page_number, limit_offset, cursor", key)
		}
	}

	if c.PageSize <= 0 || c.CatalogPageSize <= 0 || c.MaxPageSize <= 0 {
		return fmt.Errorf("page sizes must be positive")
	}

	if c.StreamMaxDuration <= 0 || c.StreamIdleTimeout <= 0 || c.StreamHeartbeat <= 0 {
		return fmt.Errorf("stream timeouts must be positive")
	}

	if c.StreamHeartbeat >= c.StreamIdleTimeout {
		return fmt.Errorf("STREAM_HEARTBEAT must be shorter than STREAM_IDLE_TIMEOUT")
	}

	for key, route := range map[string]string{"DOCS_ROUTE": c.DocsRoute, "SWAGGER_ROUTE": c.SwaggerRoute} {
		if !strings.HasPrefix(route, "/") || strings.HasPrefix(route, "/api/") || strings.HasPrefix(route, "/user/") {
			return fmt.Errorf("%s must be an absolute path outside /api/ and /user/", key)
		}
	}

	if c.DocsRoute == c.SwaggerRoute {
		return fmt.Errorf("DOCS_ROUTE and SWAGGER_ROUTE must differ")
	}

	if c.LogFormat != "pretty" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be pretty or json")
	}

	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
