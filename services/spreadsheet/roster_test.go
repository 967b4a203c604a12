package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mergington/roster/core/activity"
)

func TestExport(t *testing.T) {
	acts := map[string]activity.Activity{
		"Math Club": {
			Schedule:        "Tuesdays",
			MaxParticipants: 10,
			Participants:    []string{"james@mergington.edu"},
		},
		"Chess Club": {
			Schedule:        "Fridays",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
			Admins:          []string{"teacher@mergington.edu"},
		},
		"Drama Club": {Schedule: "Mondays", MaxParticipants: 20},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, acts))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Activity", "Schedule", "Max participants", "Email", "Role"},
		{"Chess Club", "Fridays", "12", "michael@mergington.edu", "participant"},
		{"Chess Club", "Fridays", "12", "daniel@mergington.edu", "participant"},
		{"Chess Club", "Fridays", "12", "teacher@mergington.edu", "admin"},
		{"Math Club", "Tuesdays", "10", "james@mergington.edu", "participant"},
	}, rows)
}

func TestImportEmails(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for cell, value := range map[string]string{
		"A1": "Email",
		"A2": "a@x.edu",
		"B2": "ignored",
		"A3": "  ",
		"A5": " b@x.edu ",
	} {
		require.NoError(t, f.SetCellValue(sheet, cell, value))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	emails, err := ImportEmails(&buf, "Chess Club")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.edu", "b@x.edu"}, emails)
}

func TestExportThenImport(t *testing.T) {
	acts := map[string]activity.Activity{
		"Chess Club": {
			Participants: []string{"michael@mergington.edu", "daniel@mergington.edu"},
			Admins:       []string{"teacher@mergington.edu"},
		},
		"Math Club": {
			Participants: []string{"james@mergington.edu"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, acts))
	data := buf.Bytes()

	emails, err := ImportEmails(bytes.NewReader(data), "Chess Club")
	require.NoError(t, err)
	assert.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu"}, emails)

	emails, err = ImportEmails(bytes.NewReader(data), "Math Club")
	require.NoError(t, err)
	assert.Equal(t, []string{"james@mergington.edu"}, emails)

	emails, err = ImportEmails(bytes.NewReader(data), "Art Club")
	require.NoError(t, err)
	assert.Empty(t, emails)
}

func TestImportEmails_roleAndActivityColumns(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"role", "EMAIL", "activity"},
		{"Participant", "a@x.edu", "Chess Club"},
		{"admin", "teacher@x.edu", "Chess Club"},
		{"", "b@x.edu", ""},
		{"participant", "c@x.edu", "Math Club"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	emails, err := ImportEmails(&buf, "Chess Club")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.edu", "b@x.edu"}, emails)
}

func TestImportEmails_notSpreadsheet(t *testing.T) {
	_, err := ImportEmails(strings.NewReader("email\na@x.edu\n"), "Chess Club")
	assert.Error(t, err)
}
