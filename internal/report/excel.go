// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"time"

	"github.com/vqtrack/vqtrack/internal/domain"
	"github.com/vqtrack/vqtrack/internal/stats"
	"github.com/xuri/excelize/v2"
)

var defectHeader = []any{
	"Data", "Horario", "Intervalo", "Matricula", "Modelo", "Area",
	"Reinspecao", "Atuacao", "Liberado", "VIN", "Defeito", "Quantidade",
}

var passHeader = []any{
	"Data", "Horario", "Intervalo", "Matricula", "Modelo", "Area",
	"Reinspecao", "Atuacao", "Liberado", "VIN", "Quantidade",
}

var downtimeHeader = []any{
	"Data", "Area", "Inicio", "Fim", "DuracaoMin", "Motivo",
}

// Excel renders the filtered record sets into a three-sheet workbook and
// returns the file bytes with its conventional name. periodSuffix defaults to
// Diario when empty.
func Excel(s stats.Statistics, area domain.Area, periodSuffix string, now time.Time) ([]byte, string, error) {
	if periodSuffix == "" {
		periodSuffix = "Diario"
	}
	label := AreaLabel(area)

	f := excelize.NewFile()
	defer f.Close()

	defectSheet := "Defeitos_" + label
	if err := f.SetSheetName("Sheet1", defectSheet); err != nil {
		return nil, "", fmt.Errorf("rename defect sheet: %w", err)
	}
	if err := f.SetSheetRow(defectSheet, "A1", &defectHeader); err != nil {
		return nil, "", err
	}
	for i, d := range s.FilteredDefects {
		row := []any{
			formatDate(d.Timestamp),
			formatTime(d.Timestamp),
			orNA(d.TimeSlot),
			d.OperatorID,
			string(d.Model),
			string(d.Area),
			simNao(d.IsReinspection),
			orNA(d.ActingSection),
			orNA(d.ReleaseNote),
			d.VIN,
			d.DefectType,
			d.Quantity,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetSheetRow(defectSheet, cell, &row); err != nil {
			return nil, "", err
		}
	}

	passSheet := "Producao_OK_" + label
	if _, err := f.NewSheet(passSheet); err != nil {
		return nil, "", fmt.Errorf("create pass sheet: %w", err)
	}
	if err := f.SetSheetRow(passSheet, "A1", &passHeader); err != nil {
		return nil, "", err
	}
	for i, p := range s.FilteredPass {
		row := []any{
			formatDate(p.Timestamp),
			formatTime(p.Timestamp),
			orNA(p.TimeSlot),
			p.OperatorID,
			string(p.Model),
			string(p.Area),
			simNao(p.IsReinspection),
			orNA(p.ActingSection),
			orNA(p.ReleaseNote),
			orNA(p.VIN),
			p.Quantity,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetSheetRow(passSheet, cell, &row); err != nil {
			return nil, "", err
		}
	}

	downtimeSheet := "Paradas_" + label
	if _, err := f.NewSheet(downtimeSheet); err != nil {
		return nil, "", fmt.Errorf("create downtime sheet: %w", err)
	}
	if err := f.SetSheetRow(downtimeSheet, "A1", &downtimeHeader); err != nil {
		return nil, "", err
	}
	for i, dt := range s.FilteredDowntime {
		row := []any{
			formatDate(dt.Timestamp),
			string(dt.Area),
			dt.StartTime,
			dt.EndTime,
			dt.DurationMinutes,
			dt.Reason,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetSheetRow(downtimeSheet, cell, &row); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("serialize workbook: %w", err)
	}

	name := fmt.Sprintf("Planilha_VQ_%s_%s_%s.xlsx", cleanName(label), periodSuffix, dateSuffix(now))
	return buf.Bytes(), name, nil
}
