package session

// State is the lifecycle position of the board session.
type State int

const (
	Idle State = iota
	Scanning
	Discovering
	Connecting
	ResolvingServices
	ResolvingCharacteristics
	Subscribing
	Active
	Disconnecting
	Disconnected
	Failed
)

var stateNames = [...]string{
	Idle:                     "idle",
	Scanning:                 "scanning",
	Discovering:              "discovering",
	Connecting:               "connecting",
	ResolvingServices:        "resolving_services",
	ResolvingCharacteristics: "resolving_characteristics",
	Subscribing:              "subscribing",
	Active:                   "active",
	Disconnecting:            "disconnecting",
	Disconnected:             "disconnected",
	Failed:                   "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	return s == Disconnected || s == Failed
}
