package weather

import "encoding/json"

// StateKind tags the variant held by a DisplayState.
type StateKind int

const (
	StateLoading StateKind = iota
	StateReady
	StateError
)

func (k StateKind) String() string {
	switch k {
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "loading"
	}
}

// DisplayState is what the rendering layer consumes: exactly one of
// Loading, Snapshot or Error. Values are immutable; a new cycle replaces
// the whole state.
type DisplayState struct {
	kind     StateKind
	snapshot WeatherSnapshot
	message  string
}

// Loading is the state before the first cycle completes.
func Loading() DisplayState {
	return DisplayState{kind: StateLoading}
}

// Ready wraps a successful snapshot.
func Ready(s WeatherSnapshot) DisplayState {
	return DisplayState{kind: StateReady, snapshot: s}
}

// Failed wraps a user-facing error message.
func Failed(message string) DisplayState {
	return DisplayState{kind: StateError, message: message}
}

func (s DisplayState) Kind() StateKind {
	return s.kind
}

// Snapshot returns the snapshot when the state is Ready.
func (s DisplayState) Snapshot() (WeatherSnapshot, bool) {
	if s.kind != StateReady {
		return WeatherSnapshot{}, false
	}
	return s.snapshot, true
}

// Error returns the message when the state is Error.
func (s DisplayState) Error() (string, bool) {
	if s.kind != StateError {
		return "", false
	}
	return s.message, true
}

func (s DisplayState) MarshalJSON() ([]byte, error) {
	out := struct {
		Status   string           `json:"status"`
		Snapshot *WeatherSnapshot `json:"snapshot"`
		Error    string           `json:"error,omitempty"`
	}{Status: s.kind.String()}

	switch s.kind {
	case StateReady:
		snap := s.snapshot
		out.Snapshot = &snap
	case StateError:
		out.Error = s.message
	}
	return json.Marshal(out)
}
