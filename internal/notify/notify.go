// Package notify delivers user-facing advisories, such as the notice that a
// default location is being used.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Notifier delivers a message to the user.
type Notifier interface {
	Notify(message string)
}

// LogNotifier writes advisories to the service log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(message string) {
	n.Logger.Warn("advisory", "message", message)
}

// Advisory is a message delivered through a Recorder.
type Advisory struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Recorder keeps delivered advisories so they can be shown by the HTTP API.
type Recorder struct {
	mu         sync.RWMutex
	advisories []Advisory
	now        func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

func (r *Recorder) Notify(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advisories = append(r.advisories, Advisory{Message: message, At: r.now().UTC()})
}

// Advisories returns a copy of everything delivered so far, oldest first.
func (r *Recorder) Advisories() []Advisory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Advisory, len(r.advisories))
	copy(out, r.advisories)
	return out
}

// Multi fans a message out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(message string) {
	for _, n := range m {
		n.Notify(message)
	}
}
