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
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lamassu-dca-go/internal/common"
	"lamassu-dca-go/internal/config"
	"lamassu-dca-go/internal/poller"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting Lamassu DCA distributor")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	scheduler, err := poller.NewScheduler(services.Poller, cfg.Poller.Schedule)
	if err != nil {
		zap.L().Fatal("Invalid poll schedule", zap.String("schedule", cfg.Poller.Schedule), zap.Error(err))
	}
	scheduler.Start()
	zap.L().Info("Poll scheduler running", zap.String("schedule", cfg.Poller.Schedule))

	server := &http.Server{
		Addr:    cfg.Admin.ListenAddr,
		Handler: services.ApiService.Router(cfg.Admin.RequestTimeout),
	}

	serverErr := make(chan error, 1)
	go func() {
		zap.L().Info("Admin API listening", zap.String("addr", cfg.Admin.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		zap.L().Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErr:
		zap.L().Error("Admin API failed", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("Admin API shutdown incomplete", zap.Error(err))
	}

	// Waits for an in-flight poll to finish.
	scheduler.Stop()
	zap.L().Info("Stopped gracefully")
}
