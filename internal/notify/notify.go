package notify

import (
	"sync"
	"time"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

const DefaultDuration = 4 * time.Second

type Toast struct {
	ID       int64         `json:"id"`
	Message  string        `json:"message"`
	Level    Level         `json:"level"`
	Duration time.Duration `json:"-"`
	deadline time.Time
}

// Manager owns all transient user-facing notifications for the process. The
// id counter lives here rather than in package state so there is exactly one
// writer with a clear zero-value start. Toasts dismiss themselves after
// their duration; nothing here is ever fatal.
type Manager struct {
	mu     sync.Mutex
	nextID int64
	toasts []Toast
	now    func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		now: time.Now,
	}
}

func (m *Manager) Add(message string, level Level) Toast {
	return m.AddWithDuration(message, level, DefaultDuration)
}

func (m *Manager) AddWithDuration(message string, level Level, d time.Duration) Toast {
	if d <= 0 {
		d = DefaultDuration
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t := Toast{
		ID:       m.nextID,
		Message:  message,
		Level:    level,
		Duration: d,
		deadline: m.now().Add(d),
	}
	m.toasts = append(m.toasts, t)
	return t
}

// Active returns every toast still inside its display window, pruning the
// expired ones as a side effect.
func (m *Manager) Active() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	kept := m.toasts[:0]
	for _, t := range m.toasts {
		if t.deadline.After(now) {
			kept = append(kept, t)
		}
	}
	m.toasts = kept
	out := make([]Toast, len(m.toasts))
	copy(out, m.toasts)
	return out
}

// Dismiss drops a toast early. Unknown ids are a no-op.
func (m *Manager) Dismiss(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.toasts {
		if t.ID == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}
