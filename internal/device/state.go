// Package device defines the telemetry snapshot threaded through mission
// execution. A State value is owned by exactly one in-flight mission; it is
// never shared across missions.
package device

// Status represents the flight status reported by the device.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusFlying    Status = "flying"
	StatusHovering  Status = "hovering"
	StatusReturning Status = "returning"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Position is a WGS84 coordinate pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// State is the mutable device telemetry snapshot carried through a mission.
// The engine replaces its copy with the dispatch result after every node,
// success or not, so partial state changes from failed commands are retained.
type State struct {
	Connected bool     `json:"connected"`
	Battery   int      `json:"battery"`
	Altitude  float64  `json:"altitude"`
	Position  Position `json:"position"`
	Status    Status   `json:"status"`
	Recording bool     `json:"recording"`
	Home      Position `json:"home"`
}

// NewState returns the initial snapshot for a fresh mission: disconnected,
// full battery, grounded at the given home position.
func NewState(home Position) State {
	return State{
		Connected: false,
		Battery:   100,
		Altitude:  0,
		Position:  home,
		Status:    StatusIdle,
		Recording: false,
		Home:      home,
	}
}

// DrainBattery reduces the battery level by cost, clamping at zero.
func (s *State) DrainBattery(cost int) {
	s.Battery -= cost
	if s.Battery < 0 {
		s.Battery = 0
	}
}

// Clamp normalizes out-of-range telemetry after merging remote updates.
func (s *State) Clamp() {
	if s.Battery > 100 {
		s.Battery = 100
	}
	if s.Battery < 0 {
		s.Battery = 0
	}
	if s.Altitude < 0 {
		s.Altitude = 0
	}
}
