package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type MarotoProvider struct{}

func New() Provider {
	return &MarotoProvider{}
}

func (p *MarotoProvider) GenerateHoursReport(ctx context.Context, report HoursReport) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	title := report.Title
	if title == "" {
		title = "Verified Volunteer Hours"
	}
	m.AddRow(12,
		text.NewCol(12, title, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(16,
		col.New(8).Add(
			text.New("Scope: "+report.Scope, props.Text{Top: 0, Size: 9}),
			text.New("Period: "+period(report.From, report.To), props.Text{Top: 5, Size: 9}),
		),
		col.New(4).Add(
			text.New("Generated "+report.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"), props.Text{
				Size:  9,
				Align: align.Right,
			}),
		),
	)

	// Table header
	m.AddRow(10,
		text.NewCol(4, "Volunteer", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Opportunity", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Entries", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Hours", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	if len(report.Rows) == 0 {
		m.AddRow(10, text.NewCol(12, "No verified hours in this period.", props.Text{Size: 9, Style: fontstyle.Italic}))
	}
	for _, row := range report.Rows {
		m.AddRow(8,
			text.NewCol(4, row.Volunteer, props.Text{Size: 9}),
			text.NewCol(4, row.Opportunity, props.Text{Size: 9}),
			text.NewCol(2, strconv.FormatInt(row.Entries, 10), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatHours(row.Hours), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(2, line.NewCol(12))
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, formatHours(report.TotalHours), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate hours report: %w", err)
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func period(from, to *time.Time) string {
	switch {
	case from == nil && to == nil:
		return "all time"
	case from == nil:
		return "until " + to.Format(time.DateOnly)
	case to == nil:
		return "since " + from.Format(time.DateOnly)
	default:
		return from.Format(time.DateOnly) + " to " + to.Format(time.DateOnly)
	}
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}
