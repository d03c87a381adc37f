package report

import (
	"context"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
)

const TimesheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Timesheet is a rendered spreadsheet ready to be streamed.
type Timesheet struct {
	FileName string
	Rows     int
	Content  []byte
}

type ReportService interface {
	// ExportTimesheet renders every entry matching filter, ignoring its pagination.
	ExportTimesheet(ctx context.Context, filter attendance.TimeEntryFilter) (Timesheet, error)
}
