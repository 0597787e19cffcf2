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

import (
	"sort"

	"github.com/shopspring/decimal"

	"lamassu-dca-go/internal/models"
)

// ClientState is the allocation-relevant snapshot of one active client.
// CapacitySats is the client's remaining fiat balance converted to sats at
// the transaction's exchange rate; DistributedTodaySats feeds the daily
// limit of fixed-mode clients.
type ClientState struct {
	ClientId             string
	Mode                 models.ClientMode
	DailyLimitSats       int64
	DistributedTodaySats int64
	CapacitySats         int64
}

// Allocation is one client's computed share of a transaction's base sats.
type Allocation struct {
	ClientId   string
	AmountSats int64
}

// Allocate splits baseSats across the eligible clients.
//
// Fixed-mode clients are satisfied first in ascending client id order, each
// taking min(daily limit room, capacity, what is left). The residual is then
// split across proportional clients weighted by capacity, using the
// largest-remainder method so the shares sum to the residual exactly and no
// share exceeds the client's capacity. Clients with no capacity (or fixed
// clients with no limit room) receive nothing and are omitted from the
// result. Sats that no client can absorb stay undistributed.
func Allocate(baseSats int64, clients []ClientState) []Allocation {
	if baseSats <= 0 {
		return nil
	}

	ordered := make([]ClientState, len(clients))
	copy(ordered, clients)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ClientId < ordered[j].ClientId })

	var allocations []Allocation
	remaining := baseSats

	var proportional []ClientState
	for _, c := range ordered {
		if c.CapacitySats <= 0 {
			continue
		}
		if c.Mode == models.ModeProportional {
			proportional = append(proportional, c)
			continue
		}

		if remaining == 0 {
			continue
		}
		room := c.DailyLimitSats - c.DistributedTodaySats
		if room <= 0 {
			continue
		}
		share := min64(remaining, min64(room, c.CapacitySats))
		if share > 0 {
			allocations = append(allocations, Allocation{ClientId: c.ClientId, AmountSats: share})
			remaining -= share
		}
	}

	if remaining > 0 && len(proportional) > 0 {
		allocations = append(allocations, allocateProportional(remaining, proportional)...)
	}
	return allocations
}

type proportionalShare struct {
	client   ClientState
	amount   int64
	fraction decimal.Decimal
}

// allocateProportional divides residual sats by capacity weight. Integer
// shares are floored, then the leftover sats are handed out one by one in
// descending fractional-remainder order. If capacity caps truncate shares,
// a final pass fills whatever headroom is left so the sum still reaches the
// residual whenever total capacity allows.
func allocateProportional(residual int64, clients []ClientState) []Allocation {
	totalCapacity := decimal.Zero
	for _, c := range clients {
		totalCapacity = totalCapacity.Add(decimal.NewFromInt(c.CapacitySats))
	}

	shares := make([]proportionalShare, 0, len(clients))
	allocated := int64(0)
	residualDec := decimal.NewFromInt(residual)
	for _, c := range clients {
		exact := residualDec.Mul(decimal.NewFromInt(c.CapacitySats)).Div(totalCapacity)
		floor := exact.Floor()
		amount := min64(floor.IntPart(), c.CapacitySats)
		shares = append(shares, proportionalShare{
			client:   c,
			amount:   amount,
			fraction: exact.Sub(floor),
		})
		allocated += amount
	}

	leftover := residual - allocated
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].fraction.GreaterThan(shares[j].fraction)
	})
	for i := range shares {
		if leftover == 0 {
			break
		}
		if shares[i].amount < shares[i].client.CapacitySats {
			shares[i].amount++
			leftover--
		}
	}
	for i := range shares {
		if leftover == 0 {
			break
		}
		if headroom := shares[i].client.CapacitySats - shares[i].amount; headroom > 0 {
			grant := min64(headroom, leftover)
			shares[i].amount += grant
			leftover -= grant
		}
	}

	sort.Slice(shares, func(i, j int) bool {
		return shares[i].client.ClientId < shares[j].client.ClientId
	})
	var allocations []Allocation
	for _, s := range shares {
		if s.amount > 0 {
			allocations = append(allocations, Allocation{ClientId: s.client.ClientId, AmountSats: s.amount})
		}
	}
	return allocations
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
