package dca

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lamassu-dca-go/internal/models"
)

func proportionalClient(id string, capacity int64) ClientState {
	return ClientState{ClientId: id, Mode: models.ModeProportional, CapacitySats: capacity}
}

func TestAllocateProportionalByCapacity(t *testing.T) {
	allocations := Allocate(100, []ClientState{
		proportionalClient("a", 300),
		proportionalClient("b", 700),
	})

	require.Len(t, allocations, 2)
	assert.Equal(t, Allocation{ClientId: "a", AmountSats: 30}, allocations[0])
	assert.Equal(t, Allocation{ClientId: "b", AmountSats: 70}, allocations[1])
}

func TestAllocateLargestRemainderSumsExactly(t *testing.T) {
	// 100 split 1:1:1 gives 33.33 each; the leftover sat goes to the
	// client with the largest fractional remainder (all tied, id order).
	allocations := Allocate(100, []ClientState{
		proportionalClient("a", 500),
		proportionalClient("b", 500),
		proportionalClient("c", 500),
	})

	require.Len(t, allocations, 3)
	var total int64
	for _, a := range allocations {
		total += a.AmountSats
	}
	assert.Equal(t, int64(100), total)
	assert.Equal(t, int64(34), allocations[0].AmountSats)
	assert.Equal(t, int64(33), allocations[1].AmountSats)
	assert.Equal(t, int64(33), allocations[2].AmountSats)
}

func TestAllocateCapsAtCapacity(t *testing.T) {
	// More sats than total capacity: everyone is filled to their cap and
	// no share exceeds the client's remaining balance.
	allocations := Allocate(200, []ClientState{
		proportionalClient("a", 100),
		proportionalClient("b", 40),
	})

	require.Len(t, allocations, 2)
	assert.Equal(t, Allocation{ClientId: "a", AmountSats: 100}, allocations[0])
	assert.Equal(t, Allocation{ClientId: "b", AmountSats: 40}, allocations[1])
}

func TestAllocateLeavesUnabsorbableSats(t *testing.T) {
	allocations := Allocate(100, []ClientState{
		proportionalClient("a", 10),
		proportionalClient("b", 20),
	})

	require.Len(t, allocations, 2)
	var total int64
	for _, a := range allocations {
		total += a.AmountSats
	}
	assert.Equal(t, int64(30), total)
}

func TestAllocateZeroCapacityExcluded(t *testing.T) {
	allocations := Allocate(100, []ClientState{
		proportionalClient("a", 0),
		proportionalClient("b", 500),
	})

	require.Len(t, allocations, 1)
	assert.Equal(t, Allocation{ClientId: "b", AmountSats: 100}, allocations[0])
}

func TestAllocateFixedBeforeProportional(t *testing.T) {
	allocations := Allocate(1000, []ClientState{
		proportionalClient("a", 10000),
		{ClientId: "z", Mode: models.ModeFixed, DailyLimitSats: 300, CapacitySats: 10000},
	})

	require.Len(t, allocations, 2)
	assert.Equal(t, Allocation{ClientId: "z", AmountSats: 300}, allocations[0])
	assert.Equal(t, Allocation{ClientId: "a", AmountSats: 700}, allocations[1])
}

func TestAllocateFixedHonorsDailyLimitRoom(t *testing.T) {
	allocations := Allocate(1000, []ClientState{
		{ClientId: "a", Mode: models.ModeFixed, DailyLimitSats: 500, DistributedTodaySats: 450, CapacitySats: 10000},
		{ClientId: "b", Mode: models.ModeFixed, DailyLimitSats: 500, DistributedTodaySats: 500, CapacitySats: 10000},
	})

	require.Len(t, allocations, 1)
	assert.Equal(t, Allocation{ClientId: "a", AmountSats: 50}, allocations[0])
}

func TestAllocateFixedOrderedByClientId(t *testing.T) {
	// Only 100 sats for two fixed clients wanting 80 each: ascending id wins.
	allocations := Allocate(100, []ClientState{
		{ClientId: "b", Mode: models.ModeFixed, DailyLimitSats: 80, CapacitySats: 10000},
		{ClientId: "a", Mode: models.ModeFixed, DailyLimitSats: 80, CapacitySats: 10000},
	})

	require.Len(t, allocations, 2)
	assert.Equal(t, Allocation{ClientId: "a", AmountSats: 80}, allocations[0])
	assert.Equal(t, Allocation{ClientId: "b", AmountSats: 20}, allocations[1])
}

func TestAllocateNothingToDistribute(t *testing.T) {
	assert.Nil(t, Allocate(0, []ClientState{proportionalClient("a", 500)}))
	assert.Nil(t, Allocate(100, nil))
}

func TestAllocateInputNotMutated(t *testing.T) {
	clients := []ClientState{
		proportionalClient("b", 700),
		proportionalClient("a", 300),
	}
	Allocate(100, clients)
	assert.Equal(t, "b", clients[0].ClientId)
}
