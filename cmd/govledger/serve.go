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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/govledger/govledger/governance"
	"github.com/govledger/govledger/internal/config"
	"github.com/govledger/govledger/internal/govapi"
	"github.com/govledger/govledger/internal/logging"
	"github.com/govledger/govledger/internal/server"
	"github.com/govledger/govledger/token"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Run the governance node",
	Flags:  []cli.Flag{configFlag, envFileFlag},
	Action: serve,
}

var dumpConfigCommand = &cli.Command{
	Name:   "dumpconfig",
	Usage:  "Print the effective configuration as TOML",
	Flags:  []cli.Flag{configFlag, envFileFlag},
	Action: dumpConfig,
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	return config.Load(ctx.String(configFlag.Name), ctx.String(envFileFlag.Name))
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	data, err := cfg.MarshalTOML()
	if err != nil {
		return err
	}
	_, err = ctx.App.Writer.Write(data)
	return err
}

func serve(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logCloser, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	if cfg.Metrics.Enabled {
		metrics.Enable()
	}
	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, closeOracle, err := newEngine(runCtx, cfg)
	if err != nil {
		return err
	}
	defer closeOracle()
	defer engine.Close()

	rpcSrv := rpc.NewServer()
	for _, api := range govapi.APIs(engine) {
		if err := rpcSrv.RegisterName(api.Namespace, api.Service); err != nil {
			return err
		}
	}
	return server.New(cfg.HTTP, cfg.Metrics.Enabled, rpcSrv).Run(runCtx)
}

// newEngine builds the balance oracle and the engine for cfg. The returned
// function releases the oracle's chain connection.
func newEngine(ctx context.Context, cfg *config.Config) (*governance.Engine, func(), error) {
	oracle, decimals, closeOracle, err := newOracle(ctx, cfg.Token)
	if err != nil {
		return nil, nil, err
	}
	threshold, err := token.Threshold(cfg.Governance.ThresholdUnits, decimals)
	if err != nil {
		closeOracle()
		return nil, nil, err
	}
	engine, err := governance.NewEngine(&governance.Config{
		Administrator:     cfg.Governance.Administrator,
		VotingToken:       cfg.Token.Address,
		CreationThreshold: threshold,
	}, oracle, nil)
	if err != nil {
		closeOracle()
		return nil, nil, err
	}
	log.Info("Governance engine ready", "administrator", cfg.Governance.Administrator,
		"token", cfg.Token.Address, "mode", cfg.Token.Mode, "decimals", decimals, "threshold", threshold.Dec())
	return engine, closeOracle, nil
}

func newOracle(ctx context.Context, cfg config.TokenConfig) (governance.BalanceOracle, uint8, func(), error) {
	switch cfg.Mode {
	case config.TokenModeStatic:
		balances, err := cfg.StaticBalances()
		if err != nil {
			return nil, 0, nil, err
		}
		return token.NewStaticOracle(balances), uint8(cfg.Decimals), func() {}, nil

	case config.TokenModeERC20:
		client, err := ethclient.DialContext(ctx, cfg.RPCURL)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("failed to dial token endpoint: %w", err)
		}
		oracle, err := token.NewERC20Oracle(client, cfg.Address)
		if err != nil {
			client.Close()
			return nil, 0, nil, err
		}
		decimals := uint8(cfg.Decimals)
		if cfg.Decimals == config.AutoDecimals {
			if decimals, err = oracle.Decimals(ctx); err != nil {
				client.Close()
				return nil, 0, nil, fmt.Errorf("failed to query token decimals: %w", err)
			}
		}
		return oracle, decimals, client.Close, nil

	default:
		return nil, 0, nil, fmt.Errorf("unknown token mode %q", cfg.Mode)
	}
}
