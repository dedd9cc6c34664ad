package temperature

import "time"

// RawSensor is one sensor as reported by a Source, in milli-°C.
type RawSensor struct {
	Name string
	Path string
	Temp float64
	// Peak is optional; zero means the source keeps no peak.
	Peak float64
}

// Reading is a sensor ready for display.
type Reading struct {
	Name        string     `json:"name"`
	DisplayName string     `json:"display_name"`
	Path        string     `json:"path,omitempty"`
	Temp        int        `json:"temp"`
	Peak        int        `json:"peak"`
	Level       Level      `json:"level"`
	Status      string     `json:"status"`
	Type        SensorType `json:"type"`
	Percent     float64    `json:"percent"`
}

// Key identifies a sensor across polls.
func (r Reading) Key() string {
	if r.Path != "" {
		return r.Path
	}

	return r.Name
}

// State is what the widget shows.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateEmpty   State = "empty"
)

// Snapshot is the widget data at one point in time.
type Snapshot struct {
	State     State     `json:"state"`
	Sensors   []Reading `json:"sensors"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
