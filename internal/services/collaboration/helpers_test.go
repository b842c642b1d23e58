package collaboration

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"pdf-coview/internal/models"

	"github.com/stretchr/testify/require"
)

// fakePeer records every frame delivered to it.
type fakePeer struct {
	id     string
	mu     sync.Mutex
	frames [][]byte
	full   bool
	closed bool
}

func newFakePeer(id string) *fakePeer {
	return &fakePeer{id: id}
}

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Deliver(msg []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.full || p.closed {
		return false
	}
	p.frames = append(p.frames, msg)
	return true
}

func (p *fakePeer) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *fakePeer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// messages decodes every frame received so far.
func (p *fakePeer) messages(t *testing.T) []received {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]received, 0, len(p.frames))
	for _, f := range p.frames {
		var m received
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

// last returns the most recent message, failing if there is none.
func (p *fakePeer) last(t *testing.T) received {
	t.Helper()
	msgs := p.messages(t)
	require.NotEmpty(t, msgs, "peer %s received nothing", p.id)
	return msgs[len(msgs)-1]
}

type received struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (r received) page(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, json.Unmarshal(r.Data, &n))
	return n
}

func (r received) errorMessage(t *testing.T) string {
	t.Helper()
	var e models.ErrorPayload
	require.NoError(t, json.Unmarshal(r.Data, &e))
	return e.Message
}

// fakeCleaner records scheduled deletions.
type fakeCleaner struct {
	mu        sync.Mutex
	scheduled []string
	err       error
	panicOn   string
}

func (c *fakeCleaner) ScheduleDelete(sessionID, documentURL string) error {
	if c.panicOn != "" && c.panicOn == documentURL {
		panic("cleaner exploded")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.scheduled = append(c.scheduled, documentURL)
	return nil
}

func (c *fakeCleaner) urls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.scheduled...)
}

var errStorageDown = errors.New("storage down")

// testClock is a settable clock shared by the manager and its store.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// newTestManager returns a manager with peers registered for ids.
func newTestManager(t *testing.T, cleaner DocumentCleaner, ids ...string) (*SessionManager, *testClock, map[string]*fakePeer) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}

	sm := NewSessionManager(cleaner, Options{})
	sm.now = clock.Now
	sm.store.now = clock.Now

	peers := make(map[string]*fakePeer, len(ids))
	for _, id := range ids {
		p := newFakePeer(id)
		peers[id] = p
		sm.HandleConnect(p)
	}
	return sm, clock, peers
}

func envelope(t *testing.T, event string, data any) models.Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return models.Envelope{Event: event, Data: raw}
}
