package projection

import "time"

// Metadata captures persistence state shared by projections.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	// Queued is set when the change was accepted locally but is still waiting in the offline queue.
	Queued bool
	// ActionID identifies the queued action when Queued is set.
	ActionID string
}

// Projection represents an aggregate view plus persistence metadata.
type Projection[T any] struct {
	Entity   T
	Metadata Metadata
}

// New wraps an entity with metadata.
func New[T any](entity T, metadata Metadata) *Projection[T] {
	return &Projection[T]{Entity: entity, Metadata: metadata}
}
