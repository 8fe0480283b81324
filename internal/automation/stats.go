package automation

import (
	"fmt"
	"sync"
	"time"

	"whatsapp-bulksender/internal/contacts"
)

// Stats is the queryable snapshot of one automation run.
type Stats struct {
	TotalContacts              int
	TotalMessages              int
	MessagesSent               int
	MessagesFailed             int
	ContactsProcessed          int
	ContactsFailed             int
	PersonalizedMessages       int
	SuccessRatePercent         float64
	PersonalizationRatePercent float64
	FailedContacts             []contacts.Contact
	DurationSeconds            float64
}

// runStats accumulates outcomes during a run. The failed-contact list is
// deduplicated by normalized number: one contact failing several sub-steps
// is still one failed contact.
type runStats struct {
	mu sync.Mutex

	totalContacts int
	totalMessages int
	sent          int
	failed        int
	processed     int
	personalized  int

	failedList []contacts.Contact
	failedSeen map[string]struct{}

	started time.Time
	ended   time.Time
}

func newRunStats(totalContacts, totalMessages int) *runStats {
	return &runStats{
		totalContacts: totalContacts,
		totalMessages: totalMessages,
		failedSeen:    make(map[string]struct{}),
		started:       time.Now(),
	}
}

func (s *runStats) recordSent(personalized bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent++
	s.processed++
	if personalized {
		s.personalized++
	}
}

// recordFailed counts the contact and the message as failed together: a
// delivery failure is one event seen from two angles.
func (s *runStats) recordFailed(c contacts.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
	s.processed++

	key := c.Normalized()
	if _, seen := s.failedSeen[key]; !seen {
		s.failedSeen[key] = struct{}{}
		s.failedList = append(s.failedList, c)
	}
}

func (s *runStats) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended.IsZero() {
		s.ended = time.Now()
	}
}

func (s *runStats) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := s.ended
	if end.IsZero() {
		end = time.Now()
	}

	snap := Stats{
		TotalContacts:        s.totalContacts,
		TotalMessages:        s.totalMessages,
		MessagesSent:         s.sent,
		MessagesFailed:       s.failed,
		ContactsProcessed:    s.processed,
		ContactsFailed:       len(s.failedList),
		PersonalizedMessages: s.personalized,
		FailedContacts:       append([]contacts.Contact(nil), s.failedList...),
		DurationSeconds:      end.Sub(s.started).Seconds(),
	}
	if s.processed > 0 {
		snap.SuccessRatePercent = float64(s.sent) / float64(s.processed) * 100
	}
	if s.sent > 0 {
		snap.PersonalizationRatePercent = float64(s.personalized) / float64(s.sent) * 100
	}
	return snap
}

// summaryLines renders the human-readable end-of-run report.
func (s *runStats) summaryLines() []string {
	snap := s.snapshot()
	lines := []string{
		"=== Resumen de la automatización ===",
		fmt.Sprintf("Contactos procesados: %d/%d", snap.ContactsProcessed, snap.TotalContacts),
		fmt.Sprintf("Mensajes enviados: %d", snap.MessagesSent),
		fmt.Sprintf("Mensajes fallidos: %d", snap.MessagesFailed),
		fmt.Sprintf("Tasa de éxito: %.1f%%", snap.SuccessRatePercent),
		fmt.Sprintf("Mensajes personalizados: %d (%.1f%%)", snap.PersonalizedMessages, snap.PersonalizationRatePercent),
		fmt.Sprintf("Duración: %.0f segundos", snap.DurationSeconds),
	}
	if len(snap.FailedContacts) == 0 {
		lines = append(lines, "Sin contactos fallidos")
		return lines
	}
	lines = append(lines, "Contactos fallidos:")
	for _, c := range snap.FailedContacts {
		lines = append(lines, fmt.Sprintf("  - %s (%s)", c.DisplayName(), c.Normalized()))
	}
	return lines
}
