// Package spreadsheet exports the roster to XLSX and reads student emails from XLSX uploads.
package spreadsheet

import (
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/mergington/roster/core/activity"
)

const (
	SheetName   = "Roster"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	activityHeader  = "Activity"
	emailHeader     = "Email"
	roleHeader      = "Role"
	roleParticipant = "participant"
	roleAdmin       = "admin"
)

var (
	header = []interface{}{activityHeader, "Schedule", "Max participants", emailHeader, roleHeader}

	ErrNoSheet = errors.New("spreadsheet does not contain any sheet")
)

// Export writes one row per participant and admin of acts, sorted by activity name.
func Export(w io.Writer, acts map[string]activity.Activity) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}

	names := make([]string, 0, len(acts))
	for name := range acts {
		names = append(names, name)
	}
	sort.Strings(names)

	rowNum := 2
	writeRow := func(act activity.Activity, email, role string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		row := []interface{}{act.Name, act.Schedule, act.MaxParticipants, email, role}
		if err = f.SetSheetRow(SheetName, cell, &row); err != nil {
			return errors.Wrapf(err, "writing row %d", rowNum)
		}
		rowNum++
		return nil
	}

	for _, name := range names {
		act := acts[name]
		act.Name = name
		for _, email := range act.Participants {
			if err := writeRow(act, email, roleParticipant); err != nil {
				return err
			}
		}
		for _, email := range act.Admins {
			if err := writeRow(act, email, roleAdmin); err != nil {
				return err
			}
		}
	}

	_, err := f.WriteTo(w)
	return errors.Wrap(err, "writing spreadsheet")
}

// ImportEmails returns the student emails listed in the first sheet, header row excluded.
// Emails are read from the column headed "Email", column A when there is none.
// When the sheet has "Role" or "Activity" columns, as exports do, rows of admins
// and rows of another activity than activityName are skipped. Blank cells in those columns match.
func ImportEmails(r io.Reader, activityName string) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening spreadsheet")
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s", sheet)
	}
	if len(rows) == 0 {
		return []string{}, nil
	}

	emailCol, roleCol, actCol := 0, -1, -1
	for i, cell := range rows[0] {
		switch {
		case strings.EqualFold(strings.TrimSpace(cell), emailHeader):
			emailCol = i
		case strings.EqualFold(strings.TrimSpace(cell), roleHeader):
			roleCol = i
		case strings.EqualFold(strings.TrimSpace(cell), activityHeader):
			actCol = i
		}
	}

	emails := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if role := cellAt(row, roleCol); role != "" && !strings.EqualFold(role, roleParticipant) {
			continue
		}
		if name := cellAt(row, actCol); name != "" && activityName != "" && name != activityName {
			continue
		}
		if email := cellAt(row, emailCol); email != "" {
			emails = append(emails, email)
		}
	}
	return emails, nil
}

// cellAt returns the trimmed cell of row at col, "" when the row is too short or col is negative.
func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
