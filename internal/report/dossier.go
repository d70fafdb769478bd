// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/vqtrack/vqtrack/internal/domain"
	"github.com/vqtrack/vqtrack/internal/stats"
)

// VINDossier renders the inspection history of one vehicle as a portrait PDF.
// Events come in newest-first from the stats engine and are printed in that
// order.
func VINDossier(events []stats.VINEvent, vin string, now time.Time) ([]byte, string, error) {
	vin = strings.ToUpper(strings.TrimSpace(vin))

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetTextColor(12, 74, 110)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, tr("Dossiê do Veículo"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, "VIN: "+vin, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, tr("Emitido em: "+now.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if len(events) == 0 {
		emptyNotice(pdf, tr("Nenhuma inspeção registrada para este VIN"))
	} else {
		widths := []float64{30, 34, 22, 24, 18, 62}
		tableHeader(pdf, tr, []string{"DATA/HORA", "ÁREA", "MODELO", "STATUS", "QTD", "OBSERVAÇÃO"}, widths)
		for _, ev := range events {
			tableRow(pdf, tr, []string{
				formatDate(ev.Timestamp) + " " + formatClock(ev.Timestamp),
				vinEventArea(ev),
				string(ev.Model),
				vinEventStatus(ev),
				strconv.Itoa(ev.Quantity),
				vinEventNote(ev),
			}, widths)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render vin dossier: %w", err)
	}

	name := fmt.Sprintf("Dossie_VIN_%s_%s.pdf", cleanName(vin), dateSuffix(now))
	return buf.Bytes(), name, nil
}

func vinEventArea(ev stats.VINEvent) string {
	if ev.ActingSection != "" {
		return string(ev.Area) + " / " + ev.ActingSection
	}
	return string(ev.Area)
}

func vinEventStatus(ev stats.VINEvent) string {
	if ev.Kind == domain.KindDefect {
		return "Defeito"
	}
	if ev.IsReinspection {
		return "Reinspeção OK"
	}
	return "Aprovado"
}

func vinEventNote(ev stats.VINEvent) string {
	if ev.Kind == domain.KindDefect {
		return ev.DefectType
	}
	if ev.ReleaseNote != "" {
		return "Liberado: " + ev.ReleaseNote
	}
	return ""
}

// operatorLine is one merged pass-or-defect row of the operator log, sorted
// by record timestamp.
type operatorLine struct {
	ts       int64
	slot     string
	area     string
	model    string
	status   string
	quantity int
	vin      string
	note     string
}

// OperatorLog renders the daily activity sheet of one inspector across the
// already-filtered record sets.
func OperatorLog(pass []domain.PassRecord, defects []domain.DefectRecord, operatorID string, now time.Time) ([]byte, string, error) {
	operatorID = strings.TrimSpace(operatorID)

	var lines []operatorLine
	for _, r := range pass {
		if !strings.EqualFold(r.OperatorID, operatorID) {
			continue
		}
		note := "OK"
		if r.IsReinspection {
			note = "Reinspeção OK"
		}
		if r.ReleaseNote != "" {
			note += " / Liberado: " + r.ReleaseNote
		}
		lines = append(lines, operatorLine{
			ts:       r.Timestamp,
			slot:     r.TimeSlot,
			area:     combinedArea(r.Area, r.ActingSection),
			model:    string(r.Model),
			status:   string(domain.KindPass),
			quantity: r.Quantity,
			vin:      orNA(r.VIN),
			note:     note,
		})
	}
	for _, r := range defects {
		if !strings.EqualFold(r.OperatorID, operatorID) {
			continue
		}
		lines = append(lines, operatorLine{
			ts:       r.Timestamp,
			slot:     r.TimeSlot,
			area:     combinedArea(r.Area, r.ActingSection),
			model:    string(r.Model),
			status:   string(domain.KindDefect),
			quantity: r.Quantity,
			vin:      orNA(r.VIN),
			note:     r.DefectType,
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ts > lines[j].ts })

	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetTextColor(12, 74, 110)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr("Log de Operador VQ"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, tr("Matrícula: "+orNA(operatorID)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, tr("Emitido em: "+now.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	if len(lines) == 0 {
		emptyNotice(pdf, tr("Nenhum registro para esta matrícula no período"))
	} else {
		widths := []float64{38, 18, 58, 22, 22, 14, 40, 65}
		tableHeader(pdf, tr, []string{"INTERVALO", "HORA", "ÁREA / ATUAÇÃO", "MODELO", "STATUS", "QTD", "VIN", "OBSERVAÇÃO"}, widths)
		for _, line := range lines {
			tableRow(pdf, tr, []string{
				line.slot,
				formatClock(line.ts),
				line.area,
				line.model,
				line.status,
				strconv.Itoa(line.quantity),
				line.vin,
				line.note,
			}, widths)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render operator log: %w", err)
	}

	name := fmt.Sprintf("Log_Operador_VQ_%s_%s.pdf", cleanName(orNA(operatorID)), dateSuffix(now))
	return buf.Bytes(), name, nil
}

func combinedArea(area domain.Area, section string) string {
	if section != "" {
		return strings.ToUpper(string(area) + " / " + section)
	}
	return strings.ToUpper(string(area))
}
