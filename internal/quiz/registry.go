package quiz

import (
	"time"

	"github.com/google/uuid"
)

// Registry maps live connections to participants.
// It is not safe for concurrent use; Session serializes access to it.
type Registry struct {
	byConn map[uuid.UUID]Participant
	byID   map[uuid.UUID]uuid.UUID // participant id -> connection id
	order  []uuid.UUID
	now    func() time.Time
}

// NewRegistry creates an empty participant registry.
func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		byConn: make(map[uuid.UUID]Participant),
		byID:   make(map[uuid.UUID]uuid.UUID),
		now:    now,
	}
}

// Join registers a participant for connID under a fresh identity.
func (r *Registry) Join(connID uuid.UUID, name string) (Participant, error) {
	clean, err := validateName(name)
	if err != nil {
		return Participant{}, err
	}
	if _, exists := r.byConn[connID]; exists {
		return Participant{}, invalid("connection", "already joined")
	}

	p := Participant{
		ID:           uuid.New(),
		Name:         clean,
		ConnectionID: connID,
		JoinedAt:     r.now(),
	}
	r.byConn[connID] = p
	r.byID[p.ID] = connID
	r.order = append(r.order, connID)
	return p, nil
}

// Remove drops the participant bound to connID. Absent connections are a no-op.
func (r *Registry) Remove(connID uuid.UUID) (Participant, bool) {
	p, ok := r.byConn[connID]
	if !ok {
		return Participant{}, false
	}
	delete(r.byConn, connID)
	delete(r.byID, p.ID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p, true
}

// Lookup returns the participant bound to connID.
func (r *Registry) Lookup(connID uuid.UUID) (Participant, bool) {
	p, ok := r.byConn[connID]
	return p, ok
}

// ByID finds a participant by logical identity.
func (r *Registry) ByID(participantID uuid.UUID) (Participant, bool) {
	connID, ok := r.byID[participantID]
	if !ok {
		return Participant{}, false
	}
	return r.byConn[connID], true
}

// All returns participants in join order.
func (r *Registry) All() []Participant {
	out := make([]Participant, 0, len(r.order))
	for _, connID := range r.order {
		out = append(out, r.byConn[connID])
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.byConn)
}
