// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vqtrack/vqtrack/internal/domain"
	"github.com/vqtrack/vqtrack/internal/stats"
	"github.com/xuri/excelize/v2"
)

var reportNow = time.Date(2026, time.March, 12, 14, 30, 0, 0, time.Local)

func sampleStatistics() stats.Statistics {
	ts := domain.EpochMillis(reportNow.Add(-2 * time.Hour))
	return stats.Statistics{
		TotalOK:            12,
		TotalDefects:       3,
		TotalProcessed:     15,
		TotalDowntimeHours: "0.8",
		TotalReinspections: 1,
		OverallFTT:         "80.0",
		ModelStats: []stats.ModelSummary{
			{Model: domain.ModelEQE, OK: 7, Defects: 2, Total: 9},
			{Model: domain.ModelSA2, OK: 5, Defects: 1, Total: 6},
		},
		TopDefects: []stats.DefectCount{
			{Name: "RISCO NA PORTA", Quantity: 2},
			{Name: "FALHA DE PINTURA", Quantity: 1},
		},
		FilteredPass: []domain.PassRecord{{
			ID:          uuid.New(),
			Timestamp:   ts,
			Model:       domain.ModelEQE,
			Area:        domain.AreaInspecaoOffline,
			VIN:         "9BWZZZ377VT004251",
			Quantity:    1,
			OperatorID:  "70123",
			TimeSlot:    "08:00 as 09:00",
			ReleaseNote: "Liberado pela engenharia",
		}},
		FilteredDefects: []domain.DefectRecord{{
			ID:         uuid.New(),
			Timestamp:  ts,
			Model:      domain.ModelEQE,
			Area:       domain.AreaLinhaOK,
			VIN:        "9BWZZZ377VT004252",
			DefectType: "Risco na porta",
			Quantity:   2,
			OperatorID: "70124",
			TimeSlot:   "09:00 as 10:00",
		}},
		FilteredDowntime: []domain.DowntimeRecord{{
			ID:              uuid.New(),
			Timestamp:       ts,
			Area:            domain.AreaLinhaOK,
			StartTime:       "10:00",
			EndTime:         "10:45",
			DurationMinutes: 45,
			Reason:          "Falta de peças",
		}},
	}
}

func TestExcelWorkbook(t *testing.T) {
	s := sampleStatistics()

	data, name, err := Excel(s, domain.AreaLinhaOK, "", reportNow)
	if err != nil {
		t.Fatalf("Excel: %v", err)
	}
	if name != "Planilha_VQ_Linha_OK_Diario_2026-03-12.xlsx" {
		t.Fatalf("unexpected file name %q", name)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	want := []string{"Defeitos_Linha OK", "Producao_OK_Linha OK", "Paradas_Linha OK"}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sheets = %v, want %v", got, want)
		}
	}

	cell, err := f.GetCellValue("Defeitos_Linha OK", "K2")
	if err != nil {
		t.Fatalf("read defect cell: %v", err)
	}
	if cell != "Risco na porta" {
		t.Fatalf("defect type cell = %q", cell)
	}

	cell, err = f.GetCellValue("Paradas_Linha OK", "F2")
	if err != nil {
		t.Fatalf("read downtime cell: %v", err)
	}
	if cell != "Falta de peças" {
		t.Fatalf("downtime reason cell = %q", cell)
	}
}

func TestExcelAllAreasLabel(t *testing.T) {
	_, name, err := Excel(stats.Statistics{}, domain.AreaAll, "Semanal", reportNow)
	if err != nil {
		t.Fatalf("Excel: %v", err)
	}
	if name != "Planilha_VQ_Geral_Semanal_2026-03-12.xlsx" {
		t.Fatalf("unexpected file name %q", name)
	}
}

func TestChatSummary(t *testing.T) {
	s := sampleStatistics()

	text := ChatSummary(s, domain.AreaAll, reportNow)

	for _, want := range []string{
		"Centro de Qualidade VQ - Setor: Geral",
		"*Data:* 12/03/2026",
		"*Produção Total:* 12 unidades",
		"*Defeitos Totais:* 3 ocorrências",
		"*Reinspeções:* 1 veículos",
		"*Inspeção OffLine:* 1 itens liberados",
		"*Parada Total:* 0.8 horas",
		"*EQE*: OK: 1 | Def: 2",
		"1º RISCO NA PORTA (2)",
		"*Eventos de Parada:* 1",
		"_Relatório filtrado via VQ Management System_",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("summary missing %q:\n%s", want, text)
		}
	}
	// Model and defect blocks come from the filtered record sets, not the
	// chart-scoped aggregates: the fixture's plant-wide ModelStats (EQE 7/2,
	// SA2 5/1) and its extra TopDefects entry must not appear.
	for _, leak := range []string{"OK: 7", "SA2", "FALHA DE PINTURA", "["} {
		if strings.Contains(text, leak) {
			t.Fatalf("summary leaked chart-scoped data %q:\n%s", leak, text)
		}
	}
	if strings.Contains(text, "2º") {
		t.Fatalf("summary lists more than the available defects:\n%s", text)
	}
}

func TestChatSummaryNoDefects(t *testing.T) {
	text := ChatSummary(stats.Statistics{}, domain.AreaLinhaOK, reportNow)

	if !strings.Contains(text, "Nenhum defeito registrado") {
		t.Fatalf("summary missing empty-defects line:\n%s", text)
	}
	if !strings.Contains(text, "Setor: Linha OK") {
		t.Fatalf("summary missing area label:\n%s", text)
	}
}

func TestDeck(t *testing.T) {
	s := sampleStatistics()
	start := reportNow.AddDate(0, 0, -PeriodWeekly.Days())

	data, name, err := Deck(s, domain.AreaLinhaOK, PeriodWeekly, start, reportNow)
	if err != nil {
		t.Fatalf("Deck: %v", err)
	}
	if name != "Relatorio_VQ_Linha_OK_Semanal_2026-03-12.pdf" {
		t.Fatalf("unexpected file name %q", name)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF, starts with %q", data[:min(len(data), 8)])
	}
}

func TestDeckEmptyPeriod(t *testing.T) {
	start := reportNow.AddDate(0, 0, -PeriodMonthly.Days())

	data, name, err := Deck(stats.Statistics{}, domain.AreaAll, PeriodMonthly, start, reportNow)
	if err != nil {
		t.Fatalf("Deck: %v", err)
	}
	if name != "Relatorio_VQ_Geral_Mensal_2026-03-12.pdf" {
		t.Fatalf("unexpected file name %q", name)
	}
	if len(data) == 0 {
		t.Fatal("empty deck output")
	}
}

func TestVINDossier(t *testing.T) {
	events := []stats.VINEvent{
		{
			Kind:       domain.KindDefect,
			Timestamp:  domain.EpochMillis(reportNow.Add(-time.Hour)),
			Area:       domain.AreaLinhaOK,
			Model:      domain.ModelEQE,
			VIN:        "9BWZZZ377VT004251",
			Quantity:   1,
			TimeSlot:   "08:00 as 09:00",
			DefectType: "Risco na porta",
		},
		{
			Kind:           domain.KindPass,
			Timestamp:      domain.EpochMillis(reportNow.Add(-2 * time.Hour)),
			Area:           domain.AreaInspecaoOffline,
			Model:          domain.ModelEQE,
			VIN:            "9BWZZZ377VT004251",
			Quantity:       1,
			TimeSlot:       "07:00 as 08:00",
			ActingSection:  "Elétrica",
			IsReinspection: true,
		},
	}

	data, name, err := VINDossier(events, "9bwzzz377vt004251", reportNow)
	if err != nil {
		t.Fatalf("VINDossier: %v", err)
	}
	if name != "Dossie_VIN_9BWZZZ377VT004251_2026-03-12.pdf" {
		t.Fatalf("unexpected file name %q", name)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
}

func TestOperatorLog(t *testing.T) {
	s := sampleStatistics()

	data, name, err := OperatorLog(s.FilteredPass, s.FilteredDefects, "70123", reportNow)
	if err != nil {
		t.Fatalf("OperatorLog: %v", err)
	}
	if name != "Log_Operador_VQ_70123_2026-03-12.pdf" {
		t.Fatalf("unexpected file name %q", name)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
}

func TestOperatorLogNoMatches(t *testing.T) {
	data, _, err := OperatorLog(nil, nil, "99999", reportNow)
	if err != nil {
		t.Fatalf("OperatorLog: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty operator log output")
	}
}

func TestPeriods(t *testing.T) {
	cases := []struct {
		period Period
		days   int
		label  string
	}{
		{PeriodWeekly, 7, "Semanal"},
		{PeriodMonthly, 30, "Mensal"},
		{PeriodAnnual, 365, "Anual"},
	}
	for _, tc := range cases {
		if got := tc.period.Days(); got != tc.days {
			t.Fatalf("%s Days() = %d, want %d", tc.period, got, tc.days)
		}
		if got := tc.period.LabelPT(); got != tc.label {
			t.Fatalf("%s LabelPT() = %q, want %q", tc.period, got, tc.label)
		}
		if !ValidPeriod(tc.period) {
			t.Fatalf("ValidPeriod(%s) = false", tc.period)
		}
	}
	if ValidPeriod("DAILY") {
		t.Fatal("ValidPeriod accepted unknown period")
	}
}
