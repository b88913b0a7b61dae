package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinIsIdempotent(t *testing.T) {
	registry := NewRegistry()
	client := newTestClient(1)
	key := TripChannel(7)

	registry.Join(key, client)
	registry.Join(key, client)

	assert.Len(t, registry.Members(key), 1)
}

func TestLeavePrunesEmptyChannel(t *testing.T) {
	registry := NewRegistry()
	client := newTestClient(1)
	key := ChatChannel(3)

	registry.Join(key, client)
	assert.Equal(t, 1, registry.ChannelCount())

	registry.Leave(key, client)
	assert.Empty(t, registry.Members(key))
	assert.Equal(t, 0, registry.ChannelCount())
}

func TestLeaveAllRemovesClientEverywhere(t *testing.T) {
	registry := NewRegistry()
	client := newTestClient(1)
	other := newTestClient(2)

	keys := []ChannelKey{TripChannel(1), ReservationsChannel(2), ChatChannel(3)}
	for _, key := range keys {
		registry.Join(key, client)
		registry.Join(key, other)
	}

	registry.LeaveAll(client)

	for _, key := range keys {
		members := registry.Members(key)
		assert.NotContains(t, members, client)
		assert.Contains(t, members, other)
	}
}

func TestJoinThenLeaveAllLeavesNoMembership(t *testing.T) {
	registry := NewRegistry()
	client := newTestClient(1)
	key := TripChannel(42)

	registry.Join(key, client)
	registry.LeaveAll(client)

	assert.NotContains(t, registry.Members(key), client)
	assert.Equal(t, 0, registry.ChannelCount())
}

func TestChannelKeysAreDistinctAcrossKinds(t *testing.T) {
	registry := NewRegistry()
	client := newTestClient(1)

	registry.Join(TripChannel(5), client)

	assert.Empty(t, registry.Members(ReservationsChannel(5)))
	assert.Empty(t, registry.Members(ChatChannel(5)))
	assert.Equal(t, "trip:5", TripChannel(5).String())
	assert.Equal(t, "reservations:5", ReservationsChannel(5).String())
	assert.Equal(t, "chat:5", ChatChannel(5).String())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	clients := make([]*Client, 20)
	for i := range clients {
		clients[i] = newTestClient(uint(i + 1))
	}

	for _, client := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			for trip := uint(0); trip < 10; trip++ {
				registry.Join(TripChannel(trip), c)
				registry.Members(TripChannel(trip))
				registry.Leave(TripChannel(trip%5), c)
			}
			registry.LeaveAll(c)
		}(client)
	}
	wg.Wait()

	assert.Equal(t, 0, registry.ChannelCount())
}
