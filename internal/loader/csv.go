// Package loader reads the on-disk inputs the CLI front end feeds into the
// automation core: the contact list, the message list and the record of
// contacts already messaged.
package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"whatsapp-bulksender/internal/contacts"
)

// ContactsFromCSV reads the contact list. Two shapes are accepted: a
// structured file with name/phone_number columns, and the legacy shape of
// one bare phone number per row. Both resolve to canonical contacts here at
// the boundary.
func ContactsFromCSV(filePath string) ([]contacts.Contact, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	nameIdx, phoneIdx := headerIndices(records[0])
	if phoneIdx == -1 {
		return legacyContacts(records)
	}

	list := make([]contacts.Contact, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		row := records[i]
		if len(row) <= phoneIdx || strings.TrimSpace(row[phoneIdx]) == "" {
			continue
		}
		name := ""
		if nameIdx != -1 && len(row) > nameIdx {
			name = row[nameIdx]
		}
		list = append(list, contacts.New(name, row[phoneIdx]))
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("CSV contains no usable contacts")
	}
	return list, nil
}

func headerIndices(header []string) (nameIdx, phoneIdx int) {
	nameIdx, phoneIdx = -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.ToLower(col)) {
		case "name", "nombre":
			nameIdx = i
		case "phone_number", "phone", "numero", "telefono":
			phoneIdx = i
		}
	}
	return nameIdx, phoneIdx
}

// legacyContacts treats every row's first non-empty cell as a bare phone
// number. There is no header in this shape.
func legacyContacts(records [][]string) ([]contacts.Contact, error) {
	list := make([]contacts.Contact, 0, len(records))
	for _, row := range records {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				list = append(list, contacts.FromNumber(cell))
				break
			}
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("CSV contains no usable contacts")
	}
	return list, nil
}
