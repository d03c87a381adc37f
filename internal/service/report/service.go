package report

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/report"
	"github.com/xuri/excelize/v2"
)

const (
	sheetName = "Registos"
	pageSize  = 1000
)

var header = []interface{}{
	"ID", "Utilizador", "Empresa", "Data", "Entrada", "Saída", "Total horas", "Intervalo", "Endereço",
}

type ReportServiceImpl struct {
	entries attendance.TimeEntryRepository
	loc     *time.Location
}

func NewReportService(timeEntryRepo attendance.TimeEntryRepository, loc *time.Location) report.ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportServiceImpl{
		entries: timeEntryRepo,
		loc:     loc,
	}
}

// ExportTimesheet implements report.ReportService.
func (s *ReportServiceImpl) ExportTimesheet(ctx context.Context, filter attendance.TimeEntryFilter) (report.Timesheet, error) {
	filter.Page, filter.Limit = 1, pageSize
	if err := filter.Validate(); err != nil {
		return report.Timesheet{}, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return report.Timesheet{}, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return report.Timesheet{}, fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return report.Timesheet{}, fmt.Errorf("failed to create style: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", "I1", bold); err != nil {
		return report.Timesheet{}, fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", "I", 16); err != nil {
		return report.Timesheet{}, fmt.Errorf("failed to size columns: %w", err)
	}

	row := 2
	var totalWorked, totalBreak float64
	for {
		entries, total, err := s.entries.List(ctx, filter)
		if err != nil {
			return report.Timesheet{}, fmt.Errorf("failed to list time entries: %w", err)
		}

		for _, e := range entries {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []interface{}{
				e.ID,
				e.WorkerID,
				e.CompanyID,
				e.Date.Format("2006-01-02"),
				s.formatInstant(e.ClockIn),
				s.formatInstant(e.ClockOut),
				e.WorkedHours,
				e.BreakHours,
				derefString(e.Address),
			}
			if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
				return report.Timesheet{}, fmt.Errorf("failed to write row %d: %w", row, err)
			}
			totalWorked += e.WorkedHours
			totalBreak += e.BreakHours
			row++
		}

		if len(entries) == 0 || int64(filter.Page*filter.Limit) >= total {
			break
		}
		filter.Page++
	}

	cell, _ := excelize.CoordinatesToCellName(1, row)
	totals := []interface{}{
		"Total", nil, nil, nil, nil, nil,
		attendance.RoundHours(totalWorked),
		attendance.RoundHours(totalBreak),
	}
	if err := f.SetSheetRow(sheetName, cell, &totals); err != nil {
		return report.Timesheet{}, fmt.Errorf("failed to write totals: %w", err)
	}
	totalsEnd, _ := excelize.CoordinatesToCellName(9, row)
	if err := f.SetCellStyle(sheetName, cell, totalsEnd, bold); err != nil {
		return report.Timesheet{}, fmt.Errorf("failed to style totals: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return report.Timesheet{}, fmt.Errorf("failed to render timesheet: %w", err)
	}

	return report.Timesheet{
		FileName: fileName(filter),
		Rows:     row - 2,
		Content:  buf.Bytes(),
	}, nil
}

func (s *ReportServiceImpl) formatInstant(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(s.loc).Format("2006-01-02 15:04:05")
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func fileName(filter attendance.TimeEntryFilter) string {
	name := "registos"
	if filter.StartDate != nil && *filter.StartDate != "" {
		name += "_" + *filter.StartDate
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		name += "_" + *filter.EndDate
	}
	return name + ".xlsx"
}
