// Package config содержит логику чтения конфигурации сервиса автолотереи.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mmeshcher/carlottery/internal/ticket"
)

// Config содержит параметры конфигурации сервиса автолотереи.
type Config struct {
	RunAddress        string        `env:"RUN_ADDRESS"`
	DatabaseURI       string        `env:"DATABASE_URI"`
	MaxTickets        int           `env:"MAX_TICKETS_PER_TRANSACTION"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	StatementTimezone string        `env:"STATEMENT_TIMEZONE" envDefault:"Asia/Ulaanbaatar"`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	// Файл .env необязателен.
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envMaxTickets := cfg.MaxTickets

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.IntVar(&cfg.MaxTickets, "m", ticket.DefaultMaxTickets, "max tickets per transaction")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envMaxTickets != 0 {
		cfg.MaxTickets = envMaxTickets
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.MaxTickets <= 0 {
		return nil, fmt.Errorf("max tickets per transaction must be positive, got %d", cfg.MaxTickets)
	}

	return cfg, nil
}
