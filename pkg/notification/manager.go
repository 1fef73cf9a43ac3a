package notification

import (
	"fmt"
	"log/slog"
)

// Manager fans a notice out to the registered notifiers. Delivery is
// best-effort: a failing notifier is logged and the remaining notifiers
// still run; callers never fail a request on delivery problems.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new Manager
func NewManager(notifiers ...Notifier) *Manager {
	return &Manager{
		notifiers: notifiers,
	}
}

// Register adds a notifier
func (m *Manager) Register(notifier Notifier) {
	m.notifiers = append(m.notifiers, notifier)
}

// Send delivers the notice through every registered notifier
func (m *Manager) Send(notice NoticeType, data Data) error {
	if data.To == "" {
		return fmt.Errorf("notification requires 'To' address")
	}

	for _, notifier := range m.notifiers {
		if err := notifier.Send(notice, data); err != nil {
			slog.Error("Failed to deliver notification", "notice", notice, "err", err)
		}
	}
	return nil
}
