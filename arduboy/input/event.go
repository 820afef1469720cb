package input

// Type represents the kind of input event.
type Type int

const (
	Press   Type = iota // button pressed down (debounced)
	Release             // button released (debounced)
	Hold                // continuous while held (not debounced)
)

// Event pairs an Action with the Type of transition that occurred.
type Event struct {
	Action Action
	Type   Type
}
