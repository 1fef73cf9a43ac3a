package notification

import (
	"sync"
	"time"
)

// DevMailboxRecord is one captured delivery
type DevMailboxRecord struct {
	Code      string
	CreatedAt time.Time
}

// DevMailbox captures reset codes in local mode instead of sending email.
// It is an explicit, injectable store created per server (or per test run)
// and discarded with it; nothing in this package holds mailbox state at
// package level.
type DevMailbox struct {
	mu      sync.Mutex
	records map[string]DevMailboxRecord
}

// NewDevMailbox creates an empty mailbox
func NewDevMailbox() *DevMailbox {
	return &DevMailbox{
		records: make(map[string]DevMailboxRecord),
	}
}

// Send implements Notifier.Send by capturing the code keyed by recipient
func (m *DevMailbox) Send(notice NoticeType, data Data) error {
	if notice != PasswordResetCodeNotice {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[data.To] = DevMailboxRecord{
		Code:      data.Data["Code"],
		CreatedAt: time.Now(),
	}
	return nil
}

// Consume returns and removes the latest captured code for the recipient.
// Returns false if none was captured.
func (m *DevMailbox) Consume(email string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[email]
	if !ok {
		return "", false
	}
	delete(m.records, email)
	return record.Code, true
}
