package bus

import "time"

// Event represents a change notification published on the bus.
// Kind is a dotted path, e.g. "docs.messages.<conversation key>".
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
