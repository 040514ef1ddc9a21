package config

import (
	"fmt"
	"time"

	coreconfig "github.com/go-core-fx/config"
)

type Config struct {
	APIBaseURL   string        `koanf:"api_base_url"`
	APIToken     string        `koanf:"api_token"`
	BranchID     string        `koanf:"branch_id"`
	DeviceID     string        `koanf:"device_id"`
	DBPath       string        `koanf:"db_path"`
	StatusAddr   string        `koanf:"status_addr"`
	Timeout      time.Duration `koanf:"timeout"`
	PingInterval time.Duration `koanf:"ping_interval"`
	LogFile      string        `koanf:"log_file"`
	Debug        bool          `koanf:"debug"`
}

func New() (Config, error) {
	cfg := Config{
		DBPath:       "./bestea-pos.db",
		StatusAddr:   "127.0.0.1:7365",
		Timeout:      15 * time.Second,
		PingInterval: 30 * time.Second,
		LogFile:      "./bestea-pos.log",
		Debug:        false,
	}

	if err := coreconfig.Load(&cfg); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}

	return cfg, nil
}
