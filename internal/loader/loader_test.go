package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-bulksender/internal/contacts"
	"whatsapp-bulksender/internal/messaging"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestContactsFromCSVStructured(t *testing.T) {
	path := writeFile(t, "contacts.csv", `name,phone_number
Ana,+52 1 555 000 0001
Beto,5215550000002
,5215550000003
`)
	list, err := ContactsFromCSV(path)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Ana", list[0].Name)
	assert.Equal(t, "5215550000001", list[0].Normalized())
	assert.Equal(t, contacts.DefaultName, list[2].DisplayName())
}

func TestContactsFromCSVSpanishHeaders(t *testing.T) {
	path := writeFile(t, "contacts.csv", `nombre,telefono
Ana,5215550000001
`)
	list, err := ContactsFromCSV(path)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ana", list[0].Name)
}

func TestContactsFromCSVLegacyShape(t *testing.T) {
	path := writeFile(t, "contacts.csv", `5215550000001
5215550000002
`)
	list, err := ContactsFromCSV(path)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, contacts.DefaultName, list[0].DisplayName())
	assert.Equal(t, "5215550000001", list[0].Normalized())
}

func TestContactsFromCSVSkipsEmptyPhones(t *testing.T) {
	path := writeFile(t, "contacts.csv", `name,phone_number
Ana,5215550000001
Beto,
`)
	list, err := ContactsFromCSV(path)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestContactsFromCSVRaggedRows(t *testing.T) {
	path := writeFile(t, "contacts.csv", `name,phone_number,extra
Ana,5215550000001
Beto,5215550000002,note,more
`)
	list, err := ContactsFromCSV(path)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestContactsFromCSVEmptyFile(t *testing.T) {
	path := writeFile(t, "contacts.csv", "")
	_, err := ContactsFromCSV(path)
	assert.Error(t, err)
}

func TestContactsFromCSVMissingFile(t *testing.T) {
	_, err := ContactsFromCSV(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestMessagesFromYAML(t *testing.T) {
	path := writeFile(t, "messages.yaml", `- text: "Hola [nombre]"
- text: "Mira esto"
  image: promo.png
  joint_send: true
- image: solo.png
`)
	msgs, err := MessagesFromYAML(path)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "Hola [nombre]", msgs[0].Text)
	assert.True(t, msgs[1].JointSendMode)
	assert.Equal(t, "promo.png", msgs[1].ImageRef)
	assert.False(t, msgs[2].HasText())
	assert.True(t, msgs[2].HasImage())
}

func TestMessagesFromYAMLRejectsEmptyEntry(t *testing.T) {
	path := writeFile(t, "messages.yaml", `- text: "ok"
- text: ""
`)
	_, err := MessagesFromYAML(path)
	assert.Error(t, err)
}

func TestMessagesFromYAMLEmptyFile(t *testing.T) {
	path := writeFile(t, "messages.yaml", "")
	_, err := MessagesFromYAML(path)
	assert.Error(t, err)
}

func TestImageResolver(t *testing.T) {
	base := t.TempDir()
	resolve := ImageResolver(base)

	assert.Equal(t, "", resolve(""))
	assert.Equal(t, filepath.Join(base, "promo.png"), resolve("promo.png"))

	abs := filepath.Join(base, "already", "abs.png")
	assert.Equal(t, abs, resolve(abs))
}

func TestCompletedTrackerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completed.csv")
	msgs := []messaging.Message{{Text: "hola"}}
	ana := contacts.New("Ana", "5215550000001")
	beto := contacts.New("Beto", "5215550000002")

	tracker, err := NewCompletedTracker(path, msgs)
	require.NoError(t, err)
	assert.False(t, tracker.IsCompleted(ana))

	require.NoError(t, tracker.MarkCompleted(ana))
	assert.True(t, tracker.IsCompleted(ana))
	assert.False(t, tracker.IsCompleted(beto))
	assert.Equal(t, 1, tracker.Count())

	// A fresh tracker over the same file and campaign sees the record.
	reloaded, err := NewCompletedTracker(path, msgs)
	require.NoError(t, err)
	assert.True(t, reloaded.IsCompleted(ana))
	assert.False(t, reloaded.IsCompleted(beto))
}

func TestCompletedTrackerNormalizesNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completed.csv")
	msgs := []messaging.Message{{Text: "hola"}}

	tracker, err := NewCompletedTracker(path, msgs)
	require.NoError(t, err)
	require.NoError(t, tracker.MarkCompleted(contacts.New("Ana", "+52 155 5000 0001")))
	assert.True(t, tracker.IsCompleted(contacts.New("Ana", "5215550000001")))
}

func TestCompletedTrackerCampaignScoping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completed.csv")
	ana := contacts.New("Ana", "5215550000001")

	first, err := NewCompletedTracker(path, []messaging.Message{{Text: "campaña uno"}})
	require.NoError(t, err)
	require.NoError(t, first.MarkCompleted(ana))

	// Changing the message set makes everyone eligible again.
	second, err := NewCompletedTracker(path, []messaging.Message{{Text: "campaña dos"}})
	require.NoError(t, err)
	assert.False(t, second.IsCompleted(ana))
}

func TestCompletedTrackerMissingFileIsFreshStart(t *testing.T) {
	tracker, err := NewCompletedTracker(filepath.Join(t.TempDir(), "absent.csv"), []messaging.Message{{Text: "hola"}})
	require.NoError(t, err)
	assert.Zero(t, tracker.Count())
}
