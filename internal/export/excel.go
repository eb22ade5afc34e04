package export

import (
	"fmt"
	"io"
	"time"

	"buddyboard/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	LeadsSheet   = "Leads"
	SummarySheet = "Summary"
	ContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	timeLayout   = "2006-01-02 15:04"
)

var headers = []string{
	"ID", "Submitted", "Status", "Full Name", "Email", "Phone", "Company",
	"Website", "Service", "Budget", "Timeline", "Source", "Message", "Updated",
}

var statusColors = map[string]string{
	models.StatusPending:   "#FFF2CC",
	models.StatusContacted: "#DDEBF7",
	models.StatusCompleted: "#E2EFDA",
	models.StatusCancelled: "#F8CBAD",
}

// FileName returns the download name for an export made at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("bookings_%s.xlsx", t.UTC().Format("2006-01-02_150405"))
}

// WriteBookings renders bookings as an xlsx workbook with a leads sheet and
// a per-status summary.
func WriteBookings(w io.Writer, bookings []models.Booking, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LeadsSheet); err != nil {
		return fmt.Errorf("error renaming sheet: %w", err)
	}

	if err := writeLeads(f, bookings); err != nil {
		return err
	}
	if err := writeSummary(f, bookings, generatedAt); err != nil {
		return err
	}

	idx, err := f.GetSheetIndex(LeadsSheet)
	if err == nil {
		f.SetActiveSheet(idx)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func writeLeads(f *excelize.File, bookings []models.Booking) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(LeadsSheet, cell, h)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetCellStyle(LeadsSheet, "A1", lastCol+"1", headerStyle)

	statusStyles := make(map[string]int, len(statusColors))
	for status, color := range statusColors {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err == nil {
			statusStyles[status] = style
		}
	}

	for i := range bookings {
		b := &bookings[i]
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(LeadsSheet, cell, &[]interface{}{
			b.ID,
			b.SubmittedAt.UTC().Format(timeLayout),
			b.Status,
			b.FullName,
			b.Email,
			b.Phone,
			b.Company,
			b.Website,
			models.OptionLabel("_service", b.Service),
			models.OptionLabel("_budget", b.Budget),
			models.OptionLabel("_timeline", b.Timeline),
			models.OptionLabel("_source", b.Source),
			b.Message,
			formatUpdated(b.UpdatedAt),
		}); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}

		if style, ok := statusStyles[b.Status]; ok {
			statusCell, _ := excelize.CoordinatesToCellName(3, row)
			_ = f.SetCellStyle(LeadsSheet, statusCell, statusCell, style)
		}
	}

	_ = f.SetColWidth(LeadsSheet, "A", "A", 38)
	_ = f.SetColWidth(LeadsSheet, "B", "L", 18)
	_ = f.SetColWidth(LeadsSheet, "M", "M", 50)
	_ = f.SetColWidth(LeadsSheet, "N", "N", 18)
	_ = f.SetPanes(LeadsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	return nil
}

func writeSummary(f *excelize.File, bookings []models.Booking, generatedAt time.Time) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	counts := make(map[string]int, len(models.Statuses))
	for _, b := range bookings {
		counts[b.Status]++
	}

	_ = f.SetCellValue(SummarySheet, "A1", "Generated")
	_ = f.SetCellValue(SummarySheet, "B1", generatedAt.UTC().Format(timeLayout))
	_ = f.SetCellValue(SummarySheet, "A2", "Total")
	_ = f.SetCellValue(SummarySheet, "B2", len(bookings))

	row := 3
	for _, status := range models.Statuses {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetSheetRow(SummarySheet, cell, &[]interface{}{status, counts[status]})
		row++
	}
	_ = f.SetColWidth(SummarySheet, "A", "B", 20)
	return nil
}

func formatUpdated(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
