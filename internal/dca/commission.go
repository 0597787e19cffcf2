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

package dca

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Economics is the commission breakdown of one remote transaction.
type Economics struct {
	EffectiveCommission decimal.Decimal
	CommissionSats      int64
	BaseSats            int64
	ExchangeRate        decimal.Decimal // sats per fiat minor unit
}

// CalculateEconomics computes the distributable amount of a transaction.
//
// effective = commissionPct * (1 - discountPct/100). The commission is taken
// off the gross crypto amount with round-half-to-even so repeated rounding
// does not drift in either direction. The commission is clamped to the gross
// amount: a commission larger than the transaction yields baseSats = 0, never
// a negative distributable amount.
func CalculateEconomics(fiatAmount, cryptoAmount int64, commissionPct, discountPct decimal.Decimal) Economics {
	crypto := decimal.NewFromInt(cryptoAmount)

	effective := decimal.Zero
	if commissionPct.IsPositive() {
		effective = commissionPct.Mul(hundred.Sub(discountPct)).Div(hundred)
		if effective.IsNegative() {
			effective = decimal.Zero
		}
	}

	commissionSats := crypto.Mul(effective).RoundBank(0).IntPart()
	if commissionSats < 0 {
		commissionSats = 0
	}
	if commissionSats > cryptoAmount {
		commissionSats = cryptoAmount
	}
	baseSats := cryptoAmount - commissionSats

	rate := decimal.Zero
	if fiatAmount > 0 {
		rate = decimal.NewFromInt(baseSats).Div(decimal.NewFromInt(fiatAmount))
	}

	return Economics{
		EffectiveCommission: effective,
		CommissionSats:      commissionSats,
		BaseSats:            baseSats,
		ExchangeRate:        rate,
	}
}

// FiatEquivalent converts a sats amount back to fiat minor units at the given
// rate, rounding down so a charge never exceeds what the sats are worth.
func FiatEquivalent(amountSats int64, rate decimal.Decimal) int64 {
	if !rate.IsPositive() {
		return 0
	}
	return decimal.NewFromInt(amountSats).Div(rate).Floor().IntPart()
}

// SatsEquivalent converts a fiat balance to the sats it can buy at the given
// rate, rounding down.
func SatsEquivalent(amountFiat int64, rate decimal.Decimal) int64 {
	if amountFiat <= 0 || !rate.IsPositive() {
		return 0
	}
	return decimal.NewFromInt(amountFiat).Mul(rate).Floor().IntPart()
}
