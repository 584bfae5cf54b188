package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/embworks/dltwire/internal/dlt"
)

// ReceiverConfig drives the dltd daemon.
type ReceiverConfig struct {
	Name         string   `toml:"name"`
	ListenAddr   string   `toml:"listen_addr"`
	HTTPAddr     string   `toml:"http_addr"`
	CorsOrigins  []string `toml:"cors_origins"`
	HeapCapacity int      `toml:"heap_capacity"`
	LogLevel     string   `toml:"log_level"`
}

// SenderConfig holds default identifiers for outbound frames.
type SenderConfig struct {
	ECUID string `toml:"ecu_id"`
	AppID string `toml:"app_id"`
	CtxID string `toml:"ctx_id"`
}

func LoadReceiverConfig(path string) (ReceiverConfig, error) {
	cfg := ReceiverConfig{}
	if path != "" {
		if err := loadToml(path, &cfg); err != nil {
			return ReceiverConfig{}, err
		}
	}
	if cfg.Name == "" {
		cfg.Name = "dltd"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":3490"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.HeapCapacity == 0 {
		cfg.HeapCapacity = 16384
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if err := ValidateReceiverConfig(cfg); err != nil {
		return ReceiverConfig{}, err
	}
	return cfg, nil
}

func ValidateReceiverConfig(cfg ReceiverConfig) error {
	if cfg.HeapCapacity < 0 {
		return fmt.Errorf("config: negative heap_capacity %d", cfg.HeapCapacity)
	}
	if cfg.ListenAddr == cfg.HTTPAddr {
		return fmt.Errorf("config: listen_addr and http_addr collide on %s", cfg.ListenAddr)
	}
	return nil
}

func LoadSenderConfig(path string) (SenderConfig, error) {
	cfg := SenderConfig{}
	if path != "" {
		if err := loadToml(path, &cfg); err != nil {
			return SenderConfig{}, err
		}
	}
	if cfg.ECUID == "" {
		cfg.ECUID = "ECU1"
	}
	if cfg.AppID == "" {
		cfg.AppID = "DA1"
	}
	if cfg.CtxID == "" {
		cfg.CtxID = "DC1"
	}
	if err := ValidateSenderConfig(cfg); err != nil {
		return SenderConfig{}, err
	}
	return cfg, nil
}

func ValidateSenderConfig(cfg SenderConfig) error {
	for _, id := range []string{cfg.ECUID, cfg.AppID, cfg.CtxID} {
		if len(id) > len(dlt.ID{}) {
			return fmt.Errorf("config: identifier %q longer than 4 characters", id)
		}
	}
	return nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}
