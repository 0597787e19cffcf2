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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"lamassu-dca-go/internal/models"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	requestTimeout, err := getEnvDuration("ADMIN_REQUEST_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	fallbackWindow, err := getEnvDuration("POLL_FALLBACK_WINDOW", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	dialTimeout, err := getEnvDuration("POLL_DIAL_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	queryTimeout, err := getEnvDuration("POLL_QUERY_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	lnbitsTimeout, err := getEnvDuration("LNBITS_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "dca.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Admin: models.AdminConfig{
			ListenAddr:     getEnvString("ADMIN_LISTEN_ADDR", ":8080"),
			RequestTimeout: requestTimeout,
		},
		Poller: models.PollerConfig{
			Schedule:       getEnvString("POLL_SCHEDULE", "@hourly"),
			FallbackWindow: fallbackWindow,
			DialTimeout:    dialTimeout,
			QueryTimeout:   queryTimeout,
		},
		LNbits: models.LNbitsConfig{
			BaseURL:        getEnvString("LNBITS_BASE_URL", "http://localhost:5000"),
			RequestTimeout: lnbitsTimeout,
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
