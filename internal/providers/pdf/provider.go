package pdf

import (
	"context"
	"io"
	"time"
)

// HoursReport is the data behind the verified-hours PDF.
type HoursReport struct {
	Title       string
	Scope       string
	GeneratedAt time.Time
	From        *time.Time
	To          *time.Time
	Rows        []HoursRow
	TotalHours  float64
}

// HoursRow is one volunteer's verified time on one opportunity.
type HoursRow struct {
	Volunteer   string
	Opportunity string
	Entries     int64
	Hours       float64
}

type Provider interface {
	GenerateHoursReport(ctx context.Context, report HoursReport) (io.Reader, error)
}
