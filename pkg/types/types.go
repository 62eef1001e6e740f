package types

// MinGesturePoints is the smallest point count a gesture needs before it
// describes a region. Anything shorter is a tap or a stray mark.
const MinGesturePoints = 3

// Point is a coordinate in some surface's local space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Gesture is one continuous pointer-down to pointer-up interaction together
// with the size of the surface it was drawn on
type Gesture struct {
	Points        []Point `json:"points"`
	SurfaceWidth  int     `json:"surface_width"`
	SurfaceHeight int     `json:"surface_height"`
}

// Complete reports whether the gesture has enough points to enclose a region
func (g Gesture) Complete() bool {
	return len(g.Points) >= MinGesturePoints
}

// ActionKind tags a structured result extracted from a description
type ActionKind int

const (
	// ContactCard carries a VCARD payload
	ContactCard ActionKind = iota
	// TrackingNumber carries a 12 digit parcel code
	TrackingNumber
)

func (k ActionKind) String() string {
	switch k {
	case ContactCard:
		return "vcard"
	case TrackingNumber:
		return "tracking_number"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name so results serialize readably
func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Action is a structured sub-result of a successful description
type Action struct {
	Kind    ActionKind `json:"kind"`
	Payload string     `json:"payload"`
}
