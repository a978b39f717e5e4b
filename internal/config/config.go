// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package config loads the govledger configuration from a TOML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override, e.g. GOVLEDGER_HTTP_ADDR.
const EnvPrefix = "GOVLEDGER"

// Token oracle modes
const (
	TokenModeERC20  = "erc20"
	TokenModeStatic = "static"
)

// AutoDecimals asks the token contract for its decimal count.
const AutoDecimals = -1

// Config is the complete node configuration
type Config struct {
	Governance GovernanceConfig `toml:"governance"`
	Token      TokenConfig      `toml:"token"`
	HTTP       HTTPConfig       `toml:"http"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Log        LogConfig        `toml:"log"`
}

// GovernanceConfig holds the engine parameters
type GovernanceConfig struct {
	Administrator  common.Address `toml:"administrator"`
	ThresholdUnits uint64         `toml:"threshold_units" split_words:"true"` // whole tokens needed to propose
}

// TokenConfig selects and configures the balance oracle
type TokenConfig struct {
	Mode     string            `toml:"mode"`
	Address  common.Address    `toml:"address"`
	RPCURL   string            `toml:"rpc_url" envconfig:"RPC_URL"`
	Decimals int               `toml:"decimals"`           // AutoDecimals queries the token
	Balances map[string]string `toml:"balances,omitempty"` // static mode only, decimal base units
}

// HTTPConfig configures the JSON-RPC endpoint
type HTTPConfig struct {
	Addr              string   `toml:"addr"`
	CORSOrigins       []string `toml:"cors_origins,omitempty" split_words:"true"`
	WSOrigins         []string `toml:"ws_origins,omitempty" split_words:"true"`
	RequestsPerSecond float64  `toml:"requests_per_second" split_words:"true"` // per remote IP, 0 disables
	Burst             int      `toml:"burst"`
}

// MetricsConfig toggles metrics collection and the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// LogConfig configures the root logger
type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"` // terminal or json
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" split_words:"true"`
	MaxBackups int    `toml:"max_backups" split_words:"true"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Governance: GovernanceConfig{
			ThresholdUnits: 1000,
		},
		Token: TokenConfig{
			Mode:     TokenModeERC20,
			RPCURL:   "http://127.0.0.1:8545",
			Decimals: AutoDecimals,
		},
		HTTP: HTTPConfig{
			Addr:              "127.0.0.1:8645",
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "terminal",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// Load reads the TOML file at path over the defaults, then applies the
// optional dotenv file and GOVLEDGER_* environment overrides. Either path
// may be empty.
func Load(path, envFile string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Governance.Administrator == (common.Address{}) {
		return errors.New("governance.administrator is required")
	}
	if c.Token.Decimals < AutoDecimals || c.Token.Decimals > 77 {
		return fmt.Errorf("token.decimals out of range: %d", c.Token.Decimals)
	}
	switch c.Token.Mode {
	case TokenModeERC20:
		if c.Token.Address == (common.Address{}) {
			return errors.New("token.address is required in erc20 mode")
		}
		if c.Token.RPCURL == "" {
			return errors.New("token.rpc_url is required in erc20 mode")
		}
	case TokenModeStatic:
		if c.Token.Decimals == AutoDecimals {
			return errors.New("token.decimals must be set in static mode")
		}
		if _, err := c.Token.StaticBalances(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown token.mode %q", c.Token.Mode)
	}
	switch c.Log.Format {
	case "terminal", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	if c.HTTP.RequestsPerSecond < 0 || c.HTTP.Burst < 0 {
		return errors.New("http rate limit must not be negative")
	}
	return nil
}

// StaticBalances parses the static-mode balance table
func (c *TokenConfig) StaticBalances() (map[common.Address]*uint256.Int, error) {
	balances := make(map[common.Address]*uint256.Int, len(c.Balances))
	for key, value := range c.Balances {
		if !common.IsHexAddress(key) {
			return nil, fmt.Errorf("invalid address in token.balances: %q", key)
		}
		balance, err := uint256.FromDecimal(value)
		if err != nil {
			return nil, fmt.Errorf("invalid balance for %s: %w", key, err)
		}
		balances[common.HexToAddress(key)] = balance
	}
	return balances, nil
}

// MarshalTOML renders the configuration as TOML
func (c *Config) MarshalTOML() ([]byte, error) {
	return toml.Marshal(c)
}
