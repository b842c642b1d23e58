package collaboration

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"pdf-coview/internal/metrics"
	"pdf-coview/internal/models"
)

// Groups maps a broadcast group id (the session id) to the connections
// subscribed to it. Delivery goes through the Registry, so a group never
// holds transport handles itself.
type Groups struct {
	members  map[string]map[string]struct{}
	registry *Registry
}

func NewGroups(registry *Registry) *Groups {
	return &Groups{
		members:  make(map[string]map[string]struct{}),
		registry: registry,
	}
}

// Subscribe adds connID to the group, creating the group if needed.
func (g *Groups) Subscribe(groupID, connID string) {
	if g.members[groupID] == nil {
		g.members[groupID] = make(map[string]struct{})
	}
	g.members[groupID][connID] = struct{}{}
}

// Unsubscribe removes connID from the group. Empty groups are dropped.
func (g *Groups) Unsubscribe(groupID, connID string) {
	members, ok := g.members[groupID]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(g.members, groupID)
	}
}

// Drop removes the whole group.
func (g *Groups) Drop(groupID string) {
	delete(g.members, groupID)
}

// Members returns the subscribed connection ids in sorted order.
func (g *Groups) Members(groupID string) []string {
	members := g.members[groupID]
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Publish encodes msg once and queues it for every member of the group.
// Members whose buffer is full are closed; their read pump reports the
// disconnect. Returns the number of members the frame was queued for.
func (g *Groups) Publish(groupID string, msg models.OutboundMessage) (int, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", msg.Event, err)
	}

	delivered := 0
	for connID := range g.members[groupID] {
		if g.deliver(connID, data) {
			delivered++
		}
	}
	return delivered, nil
}

// Send queues msg for a single connection.
func (g *Groups) Send(connID string, msg models.OutboundMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", msg.Event, err)
	}
	g.deliver(connID, data)
	return nil
}

func (g *Groups) deliver(connID string, data []byte) bool {
	peer, ok := g.registry.Get(connID)
	if !ok {
		return false
	}
	if !peer.Deliver(data) {
		log.Printf("⚠️  Connection %s buffer full, closing connection", connID)
		metrics.SlowConsumers.Inc()
		peer.Close()
		return false
	}
	metrics.MessagesSent.Inc()
	return true
}
