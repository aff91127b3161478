package state

// Registry assigns dense integer identities to states by content. It is the
// search's visited index and its index_to_state arena in one structure.
//
// CONCURRENCY: Registry is not thread-safe. The search loop owns it.
type Registry struct {
	states  []*State
	buckets map[uint64][]int // state hash -> ids sharing that hash
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		buckets: make(map[uint64][]int),
	}
}

// Lookup returns the identity of a state equal to s, if one was registered
func (r *Registry) Lookup(s *State) (int, bool) {
	for _, id := range r.buckets[s.Hash()] {
		if r.states[id].Equal(s) {
			return id, true
		}
	}
	return -1, false
}

// Insert registers s unless an equal state is already present. It returns
// the identity of the stored state and whether s was newly inserted.
func (r *Registry) Insert(s *State) (int, bool) {
	if id, ok := r.Lookup(s); ok {
		return id, false
	}
	id := len(r.states)
	r.states = append(r.states, s)
	r.buckets[s.Hash()] = append(r.buckets[s.Hash()], id)
	return id, true
}

// State returns the state registered under id
func (r *Registry) State(id int) *State {
	return r.states[id]
}

// Len returns the number of registered states
func (r *Registry) Len() int {
	return len(r.states)
}
