// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/vqtrack/vqtrack/internal/domain"
	"github.com/vqtrack/vqtrack/internal/stats"
)

// Deck renders the period summary deck as one landscape page per slide:
// title, headline KPIs, production by model, defect pareto, and downtime log.
// The caller filters the statistics to the period window first.
func Deck(s stats.Statistics, area domain.Area, period Period, start, end time.Time) ([]byte, string, error) {
	label := AreaLabel(area)

	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()

	// Title slide.
	pdf.AddPage()
	pdf.SetFillColor(14, 165, 233)
	pdf.Rect(0, 0, pageW, 210, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 34)
	pdf.SetY(55)
	pdf.CellFormat(0, 16, "VQ MANAGEMENT", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 14, tr("Setor: "+label), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 18)
	pdf.CellFormat(0, 12, tr("Relatório de Resumo "+period.LabelPT()), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 10,
		tr(fmt.Sprintf("Período: %s - %s", start.Format("02/01/2006"), end.Format("02/01/2006"))),
		"", 1, "C", false, 0, "")

	// KPI slide.
	pdf.AddPage()
	deckHeading(pdf, tr(fmt.Sprintf("%s - PERFORMANCE %s", label, period.LabelPT())))
	kpiCard(pdf, tr, 20, "PRODUÇÃO OK", strconv.Itoa(s.TotalOK), 2, 132, 199)
	kpiCard(pdf, tr, 110, "DEFEITOS VQ", strconv.Itoa(s.TotalDefects), 225, 29, 72)
	kpiCard(pdf, tr, 200, "PARADAS (HORAS)", s.TotalDowntimeHours+"h", 71, 85, 105)

	// Model slide.
	pdf.AddPage()
	deckHeading(pdf, tr(label+" - PRODUÇÃO POR MODELO"))
	tableHeader(pdf, tr, []string{"MODELO", "OK", "DEF", "TOTAL"}, []float64{60, 60, 60, 60})
	for _, m := range s.ModelStats {
		tableRow(pdf, tr, []string{
			string(m.Model),
			strconv.Itoa(m.OK),
			strconv.Itoa(m.Defects),
			strconv.Itoa(m.Total),
		}, []float64{60, 60, 60, 60})
	}

	// Defect pareto slide.
	pdf.AddPage()
	deckHeading(pdf, tr(label+" - PARETO DE DEFEITOS"))
	if len(s.TopDefects) == 0 {
		emptyNotice(pdf, tr("Sem defeitos registrados no período"))
	} else {
		tableHeader(pdf, tr, []string{"TIPO DE DEFEITO", "QUANTIDADE"}, []float64{190, 50})
		for _, d := range s.TopDefects {
			tableRow(pdf, tr, []string{d.Name, strconv.Itoa(d.Quantity)}, []float64{190, 50})
		}
	}

	// Downtime slide; capped to keep the table on one page.
	pdf.AddPage()
	deckHeading(pdf, tr(label+" - REGISTRO DE PARADAS"))
	if len(s.FilteredDowntime) == 0 {
		emptyNotice(pdf, tr("Nenhuma parada registrada no período"))
	} else {
		tableHeader(pdf, tr, []string{"MOTIVO", "HORÁRIO", "DURAÇÃO (MIN)"}, []float64{120, 70, 50})
		for i, dt := range s.FilteredDowntime {
			if i == 8 {
				break
			}
			tableRow(pdf, tr, []string{
				dt.Reason,
				dt.StartTime + " - " + dt.EndTime,
				strconv.Itoa(dt.DurationMinutes),
			}, []float64{120, 70, 50})
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render deck: %w", err)
	}

	name := fmt.Sprintf("Relatorio_VQ_%s_%s_%s.pdf", cleanName(label), period.LabelPT(), dateSuffix(end))
	return buf.Bytes(), name, nil
}

func deckHeading(pdf *fpdf.Fpdf, title string) {
	pdf.SetTextColor(12, 74, 110)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetY(15)
	pdf.CellFormat(0, 12, title, "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func kpiCard(pdf *fpdf.Fpdf, tr func(string) string, x float64, title, value string, r, g, b int) {
	pdf.SetFillColor(248, 250, 252)
	pdf.Rect(x, 50, 75, 60, "F")
	pdf.SetTextColor(r, g, b)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetXY(x, 58)
	pdf.CellFormat(75, 8, tr(title), "", 0, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 34)
	pdf.SetXY(x, 78)
	pdf.CellFormat(75, 16, value, "", 0, "C", false, 0, "")
}

func tableHeader(pdf *fpdf.Fpdf, tr func(string) string, titles []string, widths []float64) {
	pdf.SetFillColor(12, 74, 110)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	for i, title := range titles {
		pdf.CellFormat(widths[i], 9, tr(title), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func tableRow(pdf *fpdf.Fpdf, tr func(string) string, cells []string, widths []float64) {
	pdf.SetFillColor(255, 255, 255)
	pdf.SetTextColor(12, 74, 110)
	pdf.SetFont("Helvetica", "", 10)
	for i, cell := range cells {
		pdf.CellFormat(widths[i], 8, tr(cell), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func emptyNotice(pdf *fpdf.Fpdf, message string) {
	pdf.SetTextColor(148, 163, 184)
	pdf.SetFont("Helvetica", "", 14)
	pdf.SetY(60)
	pdf.CellFormat(0, 10, message, "", 1, "C", false, 0, "")
}
