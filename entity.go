package queuectl

import "time"

// Entity carries the creation and modification timestamps shared by all
// persisted records. Timestamps are UTC with second precision so that
// serialized records round-trip exactly.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity returns an Entity with both timestamps set to now.
func NewEntity() Entity {
	now := Now()
	return Entity{CreatedAt: now, UpdatedAt: now}
}

// Touch refreshes UpdatedAt. Called on every state transition.
func (e *Entity) Touch() {
	e.UpdatedAt = Now()
}

// Now returns the current UTC time truncated to second precision, the
// resolution used for all persisted timestamps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
