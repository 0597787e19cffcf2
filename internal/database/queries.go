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

package database

const (
	// Client queries
	queryInsertClient = `
		INSERT INTO dca_clients (id, user_id, wallet_id, username, mode, daily_limit_sats, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryUpdateClient = `
		UPDATE dca_clients
		SET wallet_id = ?, username = ?, mode = ?, daily_limit_sats = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	queryGetClient = `
		SELECT id, user_id, wallet_id, username, mode, daily_limit_sats, status, created_at, updated_at
		FROM dca_clients
		WHERE id = ?`

	queryGetClientByUserId = `
		SELECT id, user_id, wallet_id, username, mode, daily_limit_sats, status, created_at, updated_at
		FROM dca_clients
		WHERE user_id = ?`

	queryGetClients = `
		SELECT id, user_id, wallet_id, username, mode, daily_limit_sats, status, created_at, updated_at
		FROM dca_clients
		ORDER BY id`

	queryGetActiveClients = `
		SELECT id, user_id, wallet_id, username, mode, daily_limit_sats, status, created_at, updated_at
		FROM dca_clients
		WHERE status = 'active'
		ORDER BY id`

	// Deposit queries
	queryInsertDeposit = `
		INSERT INTO deposits (id, client_id, amount, currency, status, notes)
		VALUES (?, ?, ?, ?, 'pending', ?)`

	queryUpdateDeposit = `
		UPDATE deposits
		SET amount = ?, currency = ?, notes = ?
		WHERE id = ? AND status = 'pending'`

	queryGetDeposit = `
		SELECT id, client_id, amount, currency, status, COALESCE(notes, ''), created_at
		FROM deposits
		WHERE id = ?`

	queryGetDepositsByClient = `
		SELECT id, client_id, amount, currency, status, COALESCE(notes, ''), created_at
		FROM deposits
		WHERE client_id = ?
		ORDER BY created_at DESC`

	queryGetAllDeposits = `
		SELECT id, client_id, amount, currency, status, COALESCE(notes, ''), created_at
		FROM deposits
		ORDER BY created_at DESC`

	queryConfirmDeposit = `
		UPDATE deposits
		SET status = 'confirmed'
		WHERE id = ? AND status = 'pending'`

	// Balance queries
	querySumConfirmedDeposits = `
		SELECT COALESCE(SUM(amount), 0)
		FROM deposits
		WHERE client_id = ? AND status = 'confirmed'`

	querySumChargedDistributions = `
		SELECT COALESCE(SUM(amount_fiat), 0)
		FROM distributions
		WHERE client_id = ? AND status IN ('pending', 'confirmed')`

	querySumSatsDistributedSince = `
		SELECT COALESCE(SUM(amount_sats), 0)
		FROM distributions
		WHERE client_id = ? AND status IN ('pending', 'confirmed') AND created_at >= ?`

	// Distribution queries
	queryInsertDistribution = `
		INSERT INTO distributions (id, external_id, client_id, amount_sats, amount_fiat, exchange_rate, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 'pending', ?)`

	queryUpdateDistributionStatus = `
		UPDATE distributions
		SET status = ?, detail = ?
		WHERE id = ?`

	queryGetDistributionsByTransaction = `
		SELECT id, external_id, client_id, amount_sats, amount_fiat, exchange_rate, status, COALESCE(detail, ''), created_at
		FROM distributions
		WHERE external_id = ?
		ORDER BY client_id`

	// Processed transaction queries
	queryCheckTransactionProcessed = `
		SELECT id FROM processed_transactions WHERE external_id = ? LIMIT 1`

	queryInsertProcessedTransaction = `
		INSERT INTO processed_transactions (
			id, external_id, fiat_amount, crypto_amount, commission_pct, discount_pct,
			effective_commission, commission_sats, base_sats, exchange_rate,
			crypto_code, fiat_code, device_id, transaction_time, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryUpdateDistributionStats = `
		UPDATE processed_transactions
		SET clients_count = ?, distributions_total_sats = ?
		WHERE external_id = ?`

	queryGetProcessedTransactions = `
		SELECT id, external_id, fiat_amount, crypto_amount, commission_pct, discount_pct,
		       effective_commission, commission_sats, base_sats, exchange_rate,
		       distributions_total_sats, clients_count,
		       COALESCE(crypto_code, ''), COALESCE(fiat_code, ''), COALESCE(device_id, ''),
		       transaction_time, processed_at
		FROM processed_transactions
		ORDER BY transaction_time DESC
		LIMIT ? OFFSET ?`

	queryGetProcessedTransaction = `
		SELECT id, external_id, fiat_amount, crypto_amount, commission_pct, discount_pct,
		       effective_commission, commission_sats, base_sats, exchange_rate,
		       distributions_total_sats, clients_count,
		       COALESCE(crypto_code, ''), COALESCE(fiat_code, ''), COALESCE(device_id, ''),
		       transaction_time, processed_at
		FROM processed_transactions
		WHERE external_id = ?`

	// Remote configuration queries
	queryDeactivateConfigs = `
		UPDATE lamassu_config SET active = 0 WHERE active = 1`

	queryInsertConfig = `
		INSERT INTO lamassu_config (
			id, host, port, database_name, username, password,
			use_ssh_tunnel, ssh_host, ssh_port, ssh_username, ssh_password, ssh_private_key,
			source_wallet_id, commission_wallet_id, active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`

	queryGetActiveConfig = `
		SELECT id, host, port, database_name, username, COALESCE(password, ''),
		       use_ssh_tunnel, COALESCE(ssh_host, ''), COALESCE(ssh_port, 22),
		       COALESCE(ssh_username, ''), COALESCE(ssh_password, ''), COALESCE(ssh_private_key, ''),
		       COALESCE(source_wallet_id, ''), COALESCE(commission_wallet_id, ''),
		       last_poll_time, last_successful_poll, last_test_ok, COALESCE(last_test_detail, ''),
		       last_test_time, updated_at
		FROM lamassu_config
		WHERE active = 1
		ORDER BY updated_at DESC
		LIMIT 1`

	queryUpdatePollStart = `
		UPDATE lamassu_config SET last_poll_time = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	queryUpdatePollSuccess = `
		UPDATE lamassu_config SET last_successful_poll = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	queryUpdateTestResult = `
		UPDATE lamassu_config
		SET last_test_ok = ?, last_test_detail = ?, last_test_time = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
)
