/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"lamassu-dca-go/internal/common"
	"lamassu-dca-go/internal/config"
	"lamassu-dca-go/internal/database"
	"lamassu-dca-go/internal/models"
	"lamassu-dca-go/internal/store"

	"go.uber.org/zap"
)

func registerClient(ctx context.Context, dbService *database.Service, seed common.ClientSeed) error {
	username := seed.Username
	if username == "" {
		username = seed.UserId
	}

	client, err := dbService.CreateClient(ctx, store.CreateClientParams{
		UserId:         seed.UserId,
		WalletId:       seed.WalletId,
		Username:       username,
		Mode:           models.ClientMode(seed.Mode),
		DailyLimitSats: seed.DailyLimitSats,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidState) {
			return err
		}
		return fmt.Errorf("failed to create client %s: %w", seed.UserId, err)
	}

	fmt.Printf("✓ %s (%s, mode %s) -> client id %s\n", client.Username, client.UserId, client.Mode, client.Id)
	return nil
}

func main() {
	userFlag := flag.String("user", "", "Unique user identifier (required unless --file is given)")
	walletFlag := flag.String("wallet", "", "LNbits wallet id for the client")
	usernameFlag := flag.String("username", "", "Display name (defaults to --user)")
	modeFlag := flag.String("mode", string(models.ModeProportional), "Distribution mode: fixed or proportional")
	limitFlag := flag.Int64("daily-limit", 0, "Daily limit in sats (fixed mode only)")
	fileFlag := flag.String("file", "", "Optional clients.yaml for bulk registration")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	var seeds []common.ClientSeed
	if *fileFlag != "" {
		seeds, err = common.LoadClientSeed(*fileFlag)
		if err != nil {
			zap.L().Fatal("Failed to load clients file", zap.Error(err))
		}
	} else {
		if *userFlag == "" || *walletFlag == "" {
			zap.L().Fatal("Both flags are required: --user and --wallet (or use --file)")
		}
		seeds = []common.ClientSeed{{
			UserId:         *userFlag,
			WalletId:       *walletFlag,
			Username:       *usernameFlag,
			Mode:           *modeFlag,
			DailyLimitSats: *limitFlag,
		}}
	}

	common.PrintHeader("CLIENT REGISTRATION", common.DefaultWidth)
	failed := 0
	for _, seed := range seeds {
		if err := registerClient(ctx, dbService, seed); err != nil {
			fmt.Printf("✗ %s: %v\n", seed.UserId, err)
			failed++
		}
	}
	common.PrintSeparator("=", common.DefaultWidth)

	if failed > 0 {
		zap.L().Warn("Some clients were not registered",
			zap.Int("registered", len(seeds)-failed),
			zap.Int("failed", failed))
		return
	}
	zap.L().Info("All clients registered", zap.Int("count", len(seeds)))
}
