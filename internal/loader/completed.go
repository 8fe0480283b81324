package loader

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"whatsapp-bulksender/internal/contacts"
	"whatsapp-bulksender/internal/messaging"
)

// CompletedTracker remembers which contacts already received the current
// campaign so a re-run after an interruption skips them. The key ties the
// normalized number to a fingerprint of the message set: changing the
// messages makes every contact eligible again.
type CompletedTracker struct {
	filePath string
	campaign string
	done     map[string]completedEntry
}

type completedEntry struct {
	Name        string
	PhoneNumber string
	Hash        string
	Timestamp   string
}

func NewCompletedTracker(filePath string, messages []messaging.Message) (*CompletedTracker, error) {
	t := &CompletedTracker{
		filePath: filePath,
		campaign: campaignFingerprint(messages),
		done:     make(map[string]completedEntry),
	}
	if err := t.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load completed contacts: %w", err)
		}
	}
	return t, nil
}

func campaignFingerprint(messages []messaging.Message) string {
	h := sha256.New()
	for _, m := range messages {
		fmt.Fprintf(h, "%s|%s|%t\n", m.Text, m.ImageRef, m.JointSendMode)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (t *CompletedTracker) key(c contacts.Contact) string {
	h := sha256.Sum256([]byte(c.Normalized() + "|" + t.campaign))
	return hex.EncodeToString(h[:])
}

// IsCompleted reports whether the contact already got this campaign.
func (t *CompletedTracker) IsCompleted(c contacts.Contact) bool {
	_, done := t.done[t.key(c)]
	return done
}

// MarkCompleted records the contact as messaged, in memory and on disk.
func (t *CompletedTracker) MarkCompleted(c contacts.Contact) error {
	entry := completedEntry{
		Name:        c.DisplayName(),
		PhoneNumber: c.Normalized(),
		Hash:        t.key(c),
		Timestamp:   time.Now().Format("2006-01-02 15:04:05"),
	}
	t.done[entry.Hash] = entry
	return t.appendToFile(entry)
}

// Count reports how many contacts are recorded as completed.
func (t *CompletedTracker) Count() int {
	return len(t.done)
}

func (t *CompletedTracker) load() error {
	file, err := os.Open(t.filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read completed CSV: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	nameIdx, phoneIdx, hashIdx, tsIdx := -1, -1, -1, -1
	for i, col := range records[0] {
		switch strings.TrimSpace(strings.ToLower(col)) {
		case "name":
			nameIdx = i
		case "phone_number", "phone":
			phoneIdx = i
		case "hash":
			hashIdx = i
		case "timestamp", "date":
			tsIdx = i
		}
	}
	if hashIdx == -1 {
		return fmt.Errorf("completed CSV must contain a 'hash' column")
	}

	for i := 1; i < len(records); i++ {
		row := records[i]
		if len(row) <= hashIdx || strings.TrimSpace(row[hashIdx]) == "" {
			continue
		}
		entry := completedEntry{Hash: strings.TrimSpace(row[hashIdx])}
		if nameIdx != -1 && len(row) > nameIdx {
			entry.Name = strings.TrimSpace(row[nameIdx])
		}
		if phoneIdx != -1 && len(row) > phoneIdx {
			entry.PhoneNumber = strings.TrimSpace(row[phoneIdx])
		}
		if tsIdx != -1 && len(row) > tsIdx {
			entry.Timestamp = strings.TrimSpace(row[tsIdx])
		}
		t.done[entry.Hash] = entry
	}
	return nil
}

func (t *CompletedTracker) appendToFile(entry completedEntry) error {
	writeHeader := false
	if _, err := os.Stat(t.filePath); os.IsNotExist(err) {
		writeHeader = true
	}

	file, err := os.OpenFile(t.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open completed CSV: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if writeHeader {
		if err := writer.Write([]string{"name", "phone_number", "hash", "timestamp"}); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}
	record := []string{entry.Name, entry.PhoneNumber, entry.Hash, entry.Timestamp}
	if err := writer.Write(record); err != nil {
		return fmt.Errorf("failed to write CSV record: %w", err)
	}
	return nil
}
