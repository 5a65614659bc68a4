package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	// DefaultCostPricePrecision matches the two decimals prices are displayed with.
	DefaultCostPricePrecision = 2
)

// Config holds every runtime setting. It is loaded once in main and passed down explicitly.
type Config struct {
	Port        string
	StoreDriver string
	DatabaseURL string
	RedisAddr   string
	JWTSecret   string
	JWTTTL      time.Duration
	LogLevel    string

	// AdminEmail and AdminPassword seed the first MASTER_ADMIN account when it does not exist.
	AdminEmail    string
	AdminPassword string

	Tx TxConfig

	// CostPricePrecision is the number of decimal places the moving-average cost is rounded to.
	CostPricePrecision int32
	// SalesCancelRestock restores product stock when a finished sales order is cancelled.
	SalesCancelRestock bool
	// SalesReturnRestock puts returned goods back into stock when a sales return is finished.
	SalesReturnRestock bool
}

type TxConfig struct {
	Timeout    time.Duration
	MaxWait    time.Duration
	Isolation  sql.IsolationLevel
	MaxRetries int
}

func DefaultTxConfig() TxConfig {
	return TxConfig{
		Timeout:    20 * time.Second,
		MaxWait:    10 * time.Second,
		Isolation:  sql.LevelReadCommitted,
		MaxRetries: 3,
	}
}

// Load reads configuration from the environment. godotenv should already have run.
func Load() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "3000"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDRESS"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Tx:          DefaultTxConfig(),

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Jakarta",
			os.Getenv("DB_HOST"),
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
			os.Getenv("DB_PORT"),
		)
	}

	if cfg.StoreDriver != StoreDriverPostgres && cfg.StoreDriver != StoreDriverMemory {
		return Config{}, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, cfg.StoreDriver)
	}

	var err error
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.Tx.Timeout, err = getDuration("TX_TIMEOUT", cfg.Tx.Timeout); err != nil {
		return Config{}, err
	}
	if cfg.Tx.MaxWait, err = getDuration("TX_MAX_WAIT", cfg.Tx.MaxWait); err != nil {
		return Config{}, err
	}
	if cfg.Tx.Isolation, err = ParseIsolation(getEnv("TX_ISOLATION", "read_committed")); err != nil {
		return Config{}, err
	}
	if cfg.Tx.MaxRetries, err = getInt("TX_MAX_RETRIES", cfg.Tx.MaxRetries); err != nil {
		return Config{}, err
	}

	precision, err := getInt("COST_PRICE_PRECISION", DefaultCostPricePrecision)
	if err != nil {
		return Config{}, err
	}
	if precision < 0 || precision > 4 {
		return Config{}, fmt.Errorf("COST_PRICE_PRECISION must be between 0 and 4, got %d", precision)
	}
	cfg.CostPricePrecision = int32(precision)

	if cfg.SalesCancelRestock, err = getBool("SALES_CANCEL_RESTOCK", false); err != nil {
		return Config{}, err
	}
	if cfg.SalesReturnRestock, err = getBool("SALES_RETURN_RESTOCK", false); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ParseIsolation accepts read_committed, repeatable_read or serializable.
func ParseIsolation(v string) (sql.IsolationLevel, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(v), " ", "_")) {
	case "read_committed", "":
		return sql.LevelReadCommitted, nil
	case "repeatable_read":
		return sql.LevelRepeatableRead, nil
	case "serializable":
		return sql.LevelSerializable, nil
	default:
		return sql.LevelDefault, fmt.Errorf("TX_ISOLATION %q is not supported (use read_committed, repeatable_read or serializable)", v)
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
