// Package export renders attendance records as an xlsx workbook.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"attendbot/internal/attendance"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Attendance"

var headers = []string{"No", "ID", "Class", "Status", "Reason", "Proof name", "Proof URL", "Recorded at (UTC)"}

// Workbook writes one row per record below a header row, in the order given.
func Workbook(records []attendance.Record) (*bytes.Buffer, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(file.GetActiveSheetIndex()), sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := file.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for index, rec := range records {
		reason, proofName, proofURL := "", "", ""
		if rec.Reason != nil {
			reason = *rec.Reason
		}
		if rec.Proof != nil {
			proofName, proofURL = rec.Proof.Name, rec.Proof.URL
		}
		row := []any{
			index + 1,
			rec.ID,
			rec.Subject,
			rec.Status.Label(),
			reason,
			proofName,
			proofURL,
			rec.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, index+2)
		if err := file.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("write record %d: %w", rec.ID, err)
		}
	}

	buffer, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buffer, nil
}

// Filename names an export downloaded at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("attendance-%s.xlsx", now.UTC().Format("2006-01-02"))
}
