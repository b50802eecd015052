package board

import "fmt"

// Kind classifies a translated token.
type Kind int

const (
	KindUnknown Kind = iota
	KindScore
	KindButtonPress
	KindOutOfBounds
)

func (k Kind) String() string {
	switch k {
	case KindScore:
		return "score"
	case KindButtonPress:
		return "button"
	case KindOutOfBounds:
		return "out"
	default:
		return "unknown"
	}
}

const (
	// MaxSegment is the bull; 1..20 are the numbered wedges.
	MaxSegment = 25
	// MaxMultiplier is the triple ring.
	MaxMultiplier = 3
)

const (
	buttonValue  = "BTN"
	outValue     = "OUT"
	unknownValue = "ERROR"
)

// ScoreValue is the decoded meaning of a token. Segment and Multiplier are
// only meaningful for KindScore and KindOutOfBounds.
type ScoreValue struct {
	Kind       Kind
	Segment    int
	Multiplier int
}

var (
	UnknownValue     = ScoreValue{Kind: KindUnknown}
	ButtonPressValue = ScoreValue{Kind: KindButtonPress}
	// OutOfBoundsValue reaches the host as a miss: segment 0, multiplier 0.
	OutOfBoundsValue = ScoreValue{Kind: KindOutOfBounds}
)

// String renders the vendor value string ("20-3", "BTN", "OUT", "ERROR").
func (v ScoreValue) String() string {
	switch v.Kind {
	case KindScore:
		return fmt.Sprintf("%d-%d", v.Segment, v.Multiplier)
	case KindButtonPress:
		return buttonValue
	case KindOutOfBounds:
		return outValue
	default:
		return unknownValue
	}
}

// Dart converts a concrete value into a throw. It returns false for button
// presses and unknown tokens, which must never become throws.
func (v ScoreValue) Dart() (Dart, bool) {
	switch v.Kind {
	case KindScore, KindOutOfBounds:
		return Dart{Segment: v.Segment, Multiplier: v.Multiplier}, true
	default:
		return Dart{}, false
	}
}

// Dart is one thrown dart as reported to the host.
type Dart struct {
	Segment    int `json:"segment"`
	Multiplier int `json:"multiplier"`
}

// Score returns the points of the dart.
func (d Dart) Score() int {
	return d.Segment * d.Multiplier
}

// IsBull reports a hit on the bull (either ring).
func (d Dart) IsBull() bool {
	return d.Segment == MaxSegment && d.Multiplier > 0
}

func (d Dart) String() string {
	switch d.Multiplier {
	case 0:
		return fmt.Sprintf("%d (miss)", d.Segment)
	case 2:
		return fmt.Sprintf("D%d", d.Segment)
	case 3:
		return fmt.Sprintf("T%d", d.Segment)
	default:
		return fmt.Sprintf("S%d", d.Segment)
	}
}
