package collaboration

// Peer is the transport-side handle of one live connection.
type Peer interface {
	ID() string
	// Deliver queues an encoded frame without blocking. It returns false
	// when the frame could not be queued.
	Deliver(msg []byte) bool
	Close()
}

// Registry tracks live connections by id, independent of sessions.
// Like Store it is owned by the event loop and holds no lock.
type Registry struct {
	peers map[string]Peer
}

func NewRegistry() *Registry {
	return &Registry{peers: make(map[string]Peer)}
}

func (r *Registry) Add(p Peer) {
	r.peers[p.ID()] = p
}

func (r *Registry) Remove(id string) (Peer, bool) {
	p, ok := r.peers[id]
	if ok {
		delete(r.peers, id)
	}
	return p, ok
}

func (r *Registry) Get(id string) (Peer, bool) {
	p, ok := r.peers[id]
	return p, ok
}

func (r *Registry) Len() int {
	return len(r.peers)
}

// All returns every registered peer.
func (r *Registry) All() []Peer {
	result := make([]Peer, 0, len(r.peers))
	for _, p := range r.peers {
		result = append(result, p)
	}
	return result
}
