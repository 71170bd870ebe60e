package budget

// EventType names an engine notification.
type EventType string

const (
	// EventRecomputed follows a full Compute.
	EventRecomputed EventType = "recomputed"
	// EventRemoved follows Remove or RemoveSubcategory.
	EventRemoved EventType = "category_removed"
)

// Event is delivered synchronously to every registered Listener.
type Event struct {
	Type     EventType
	Snapshot Snapshot
	Removed  []string // entity IDs dropped from the maps
}

// Listener receives engine events. Listeners run on the caller's goroutine
// and must not call back into the engine.
type Listener func(Event)
