package services

import (
	"log"
	"sync"
)

// Registry tracks which clients are joined to which channels. Mutations are
// short and synchronous; callers must never hold the registry across I/O.
type Registry struct {
	mutex    sync.RWMutex
	channels map[ChannelKey]map[*Client]bool
	joined   map[*Client]map[ChannelKey]bool
}

func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[ChannelKey]map[*Client]bool),
		joined:   make(map[*Client]map[ChannelKey]bool),
	}
}

// Join adds the client to the channel. Joining twice is a no-op.
func (r *Registry) Join(key ChannelKey, client *Client) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	members, ok := r.channels[key]
	if !ok {
		members = make(map[*Client]bool)
		r.channels[key] = members
	}
	if members[client] {
		return
	}
	members[client] = true

	keys, ok := r.joined[client]
	if !ok {
		keys = make(map[ChannelKey]bool)
		r.joined[client] = keys
	}
	keys[key] = true
}

// Leave removes the client from one channel. Empty channels are pruned.
func (r *Registry) Leave(key ChannelKey, client *Client) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.leaveLocked(key, client)
}

func (r *Registry) leaveLocked(key ChannelKey, client *Client) {
	if members, ok := r.channels[key]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(r.channels, key)
		}
	}
	if keys, ok := r.joined[client]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(r.joined, client)
		}
	}
}

// LeaveAll removes the client from every channel it joined. Called exactly
// once as part of connection teardown.
func (r *Registry) LeaveAll(client *Client) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for key := range r.joined[client] {
		r.leaveLocked(key, client)
	}
	delete(r.joined, client)
	log.Printf("Client %d left all channels", client.ID)
}

// Members returns a snapshot of the channel's members. No ordering guarantee.
func (r *Registry) Members(key ChannelKey) []*Client {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	members := r.channels[key]
	out := make([]*Client, 0, len(members))
	for client := range members {
		out = append(out, client)
	}
	return out
}

// ChannelCount returns the number of non-empty channels.
func (r *Registry) ChannelCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.channels)
}
