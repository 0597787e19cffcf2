package common

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"lamassu-dca-go/internal/models"
)

type ClientSeed struct {
	UserId         string `yaml:"user_id"`
	WalletId       string `yaml:"wallet_id"`
	Username       string `yaml:"username"`
	Mode           string `yaml:"mode"`
	DailyLimitSats int64  `yaml:"daily_limit_sats"`
}

type ClientsConfig struct {
	Clients []ClientSeed `yaml:"clients"`
}

// LoadClientSeed reads a clients.yaml bulk-registration file.
func LoadClientSeed(clientsFile string) ([]ClientSeed, error) {
	var clientsPath string
	if filepath.IsAbs(clientsFile) {
		clientsPath = clientsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		clientsPath = filepath.Join(wd, clientsFile)
	}

	data, err := os.ReadFile(clientsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", clientsFile, err)
	}

	var config ClientsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", clientsFile, err)
	}

	for i, client := range config.Clients {
		if client.UserId == "" {
			return nil, fmt.Errorf("client at index %d missing user_id", i)
		}
		if client.WalletId == "" {
			return nil, fmt.Errorf("client at index %d missing wallet_id", i)
		}
		switch models.ClientMode(client.Mode) {
		case models.ModeFixed:
			if client.DailyLimitSats <= 0 {
				return nil, fmt.Errorf("fixed-mode client %s needs a positive daily_limit_sats", client.UserId)
			}
		case models.ModeProportional:
		default:
			return nil, fmt.Errorf("client %s has unknown mode %q", client.UserId, client.Mode)
		}
	}

	return config.Clients, nil
}
