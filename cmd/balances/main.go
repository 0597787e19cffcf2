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
	"flag"
	"fmt"
	"time"

	"lamassu-dca-go/internal/common"
	"lamassu-dca-go/internal/config"
	"lamassu-dca-go/internal/models"

	"go.uber.org/zap"
)

func printClient(client models.DcaClient, balance *models.ClientBalance, distributedToday int64) {
	fmt.Printf("\n┌─ Client: %s (%s)\n", client.Username, client.UserId)
	fmt.Printf("│  ID: %s\n", client.Id)
	fmt.Printf("│  Mode: %s", client.Mode)
	if client.Mode == models.ModeFixed {
		fmt.Printf(" (limit %s/day, %s today)", common.FormatSats(client.DailyLimitSats), common.FormatSats(distributedToday))
	}
	fmt.Printf("  Status: %s\n", client.Status)
	common.PrintBoxSeparator(78)
	fmt.Printf("%s Deposits:  %s\n", common.BoxPrefix(false), common.FormatFiat(balance.TotalDeposits, ""))
	fmt.Printf("%s Charged:   %s\n", common.BoxPrefix(false), common.FormatFiat(balance.TotalPayments, ""))
	fmt.Printf("%s Remaining: %s\n", common.BoxPrefix(true), common.FormatFiat(balance.RemainingBalance, ""))
}

func main() {
	activeOnly := flag.Bool("active", false, "Show only active clients")
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

	var clients []models.DcaClient
	if *activeOnly {
		clients, err = dbService.GetActiveClients(ctx)
	} else {
		clients, err = dbService.GetClients(ctx)
	}
	if err != nil {
		zap.L().Fatal("Failed to list clients", zap.Error(err))
	}

	common.PrintHeader("CLIENT BALANCES", common.DefaultWidth)
	if len(clients) == 0 {
		fmt.Println("No clients registered. Use cmd/addclient to register one.")
		return
	}

	now := time.Now().UTC()
	var totalRemaining int64
	for _, client := range clients {
		balance, err := dbService.ComputeBalance(ctx, client.Id)
		if err != nil {
			zap.L().Error("Failed to compute balance",
				zap.String("client_id", client.Id), zap.Error(err))
			continue
		}

		var distributedToday int64
		if client.Mode == models.ModeFixed {
			distributedToday, err = dbService.SatsDistributedToday(ctx, client.Id, now)
			if err != nil {
				zap.L().Error("Failed to compute daily total",
					zap.String("client_id", client.Id), zap.Error(err))
			}
		}

		printClient(client, balance, distributedToday)
		totalRemaining += balance.RemainingBalance
	}

	fmt.Println()
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Printf("Total remaining across %d clients: %s\n", len(clients), common.FormatFiat(totalRemaining, ""))
}
