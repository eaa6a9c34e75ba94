package cli

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	pdfHeaderColor = props.Color{Red: 50, Green: 50, Blue: 50}
	pdfMutedColor  = props.Color{Red: 120, Green: 120, Blue: 120}
	pdfErrorColor  = props.Color{Red: 180, Green: 40, Blue: 40}
	pdfLineColor   = props.Color{Red: 200, Green: 200, Blue: 200}
)

// renderReportPDF generates a PDF summary of the resolution report and saves
// it to the given path.
func renderReportPDF(data reportData, outputPath string) error {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	// Document header
	m.AddRow(14,
		text.NewCol(12, "Date resolution report", props.Text{
			Style: fontstyle.Bold,
			Size:  16,
			Color: &pdfHeaderColor,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, "Reference date: "+data.ReferenceDate.Format("2006-01-02"), props.Text{
			Size:  12,
			Color: &pdfMutedColor,
		}),
	)
	m.AddRow(4, line.NewCol(12, props.Line{Color: &pdfLineColor}))
	m.AddRow(4) // spacer

	for _, row := range data.Rows {
		m.AddRow(7,
			text.NewCol(12, row.Query, props.Text{
				Style: fontstyle.Bold,
				Size:  9,
				Color: &pdfHeaderColor,
			}),
		)
		if row.Err != "" {
			m.AddRow(6,
				text.NewCol(12, "  error: "+row.Err, props.Text{
					Size:  9,
					Color: &pdfErrorColor,
				}),
			)
		} else {
			m.AddRow(6,
				text.NewCol(8, "  "+row.Resolution, props.Text{Size: 9}),
				text.NewCol(4, row.Kind, props.Text{
					Size:  9,
					Align: align.Right,
					Color: &pdfMutedColor,
				}),
			)
			m.AddRow(5,
				text.NewCol(12, "  "+row.Filter, props.Text{
					Size:  7,
					Color: &pdfMutedColor,
				}),
			)
		}
		m.AddRow(3) // spacer
	}

	// Footer with totals
	m.AddRow(4, line.NewCol(12, props.Line{Color: &pdfLineColor}))
	m.AddRow(10,
		text.NewCol(12, fmt.Sprintf("%d queries, %d resolved", len(data.Rows), countResolved(data.Rows)), props.Text{
			Style: fontstyle.Bold,
			Size:  10,
			Color: &pdfHeaderColor,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("generating PDF: %w", err)
	}

	return doc.Save(outputPath)
}
