// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vqtrack/vqtrack/internal/domain"
)

var day = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.Local)

func dayFilter(area domain.Area) Filter {
	return Filter{StartDate: day, EndDate: day, Area: area, ChartScope: ScopeSelected}
}

func passRec(area domain.Area, model domain.CarModel, vin string, qty int, slot string) domain.PassRecord {
	return domain.PassRecord{
		ID:        uuid.New(),
		Timestamp: domain.EpochMillis(day.Add(9 * time.Hour)),
		Model:     model,
		Area:      area,
		VIN:       vin,
		Quantity:  qty,
		TimeSlot:  slot,
	}
}

func defectRec(area domain.Area, model domain.CarModel, vin, defect string, qty int, slot string) domain.DefectRecord {
	return domain.DefectRecord{
		ID:         uuid.New(),
		Timestamp:  domain.EpochMillis(day.Add(9 * time.Hour)),
		Model:      model,
		Area:       area,
		VIN:        vin,
		DefectType: defect,
		Quantity:   qty,
		TimeSlot:   slot,
	}
}

func downtimeRec(area domain.Area, minutes int) domain.DowntimeRecord {
	return domain.DowntimeRecord{
		ID:              uuid.New(),
		Timestamp:       domain.EpochMillis(day.Add(9 * time.Hour)),
		Area:            area,
		StartTime:       "09:00",
		EndTime:         "09:30",
		DurationMinutes: minutes,
	}
}

func areaRow(t *testing.T, s Statistics, area domain.Area) AreaSummary {
	t.Helper()
	for _, row := range s.AreaStats {
		if row.Area == area {
			return row
		}
	}
	t.Fatalf("no area row for %q", area)
	return AreaSummary{}
}

func TestComputeEmptyInput(t *testing.T) {
	s := Compute(nil, nil, nil, dayFilter(domain.AreaAll))

	if s.TotalProcessed != 0 || s.TotalOK != 0 || s.TotalDefects != 0 {
		t.Fatalf("expected zero totals, got %+v", s)
	}
	if s.OverallFTT != "0.0" {
		t.Fatalf("overall ftt = %q, want 0.0", s.OverallFTT)
	}
	if s.TotalDowntimeHours != "0.0" {
		t.Fatalf("downtime hours = %q, want 0.0", s.TotalDowntimeHours)
	}
	if len(s.AreaStats) != len(domain.Areas) {
		t.Fatalf("area stats rows = %d, want %d", len(s.AreaStats), len(domain.Areas))
	}
	for _, row := range s.AreaStats {
		if row.FTT != "0.0" {
			t.Fatalf("area %q ftt = %q, want 0.0", row.Area, row.FTT)
		}
	}
	if len(s.TopDefects) != 0 || len(s.TimeSlotSeries) != 0 || len(s.VINHistory) != 0 {
		t.Fatalf("expected empty series, got %+v", s)
	}
	if s.SubAreaDetail != nil {
		t.Fatalf("unexpected sub-area detail for ALL filter")
	}
}

func TestComputeTotalsAndFTT(t *testing.T) {
	pass := []domain.PassRecord{
		passRec(domain.AreaLinhaOK, domain.ModelEQE, "9BWAB123", 2, "08:00 as 09:00"),
	}
	defects := []domain.DefectRecord{
		defectRec(domain.AreaLinhaOK, domain.ModelEQE, "9BWAB123", "Risco na porta", 1, "08:00 as 09:00"),
	}
	downtime := []domain.DowntimeRecord{downtimeRec(domain.AreaLinhaOK, 30)}

	s := Compute(pass, defects, downtime, dayFilter(domain.AreaAll))

	if s.TotalOK != 2 || s.TotalDefects != 1 || s.TotalProcessed != 3 {
		t.Fatalf("totals = ok %d nok %d processed %d, want 2 1 3",
			s.TotalOK, s.TotalDefects, s.TotalProcessed)
	}
	if s.TotalDowntimeHours != "0.5" {
		t.Fatalf("downtime hours = %q, want 0.5", s.TotalDowntimeHours)
	}
	if s.OverallFTT != "66.7" {
		t.Fatalf("overall ftt = %q, want 66.7", s.OverallFTT)
	}

	row := areaRow(t, s, domain.AreaLinhaOK)
	if row.OK != 2 || row.Defects != 1 || row.Total != 3 || row.DowntimeMinutes != 30 {
		t.Fatalf("Linha OK row = %+v", row)
	}
	if row.FTT != "66.7" {
		t.Fatalf("Linha OK ftt = %q, want 66.7", row.FTT)
	}

	other := areaRow(t, s, domain.AreaTesteDeChuva)
	if other.Total != 0 || other.FTT != "0.0" {
		t.Fatalf("Teste de Chuva row = %+v, want zeros", other)
	}
}

func TestComputeAreaPartition(t *testing.T) {
	var pass []domain.PassRecord
	for i, area := range domain.Areas {
		pass = append(pass, passRec(area, domain.ModelSA2, "", i+1, "08:00 as 09:00"))
	}
	s := Compute(pass, nil, nil, dayFilter(domain.AreaAll))

	sum := 0
	for _, row := range s.AreaStats {
		sum += row.Total
	}
	if sum != s.TotalProcessed {
		t.Fatalf("area totals sum %d != processed %d", sum, s.TotalProcessed)
	}
}

func TestComputeDateRangeExcludes(t *testing.T) {
	rec := passRec(domain.AreaLinhaOK, domain.ModelEQE, "", 1, "08:00 as 09:00")
	rec.Timestamp = domain.EpochMillis(day.AddDate(0, 0, -1).Add(9 * time.Hour))

	s := Compute([]domain.PassRecord{rec}, nil, nil, dayFilter(domain.AreaAll))
	if s.TotalProcessed != 0 {
		t.Fatalf("out-of-range record counted: processed = %d", s.TotalProcessed)
	}
}

func TestComputeVINQueryCaseInsensitive(t *testing.T) {
	pass := []domain.PassRecord{
		passRec(domain.AreaInspecaoOffline, domain.ModelEQE, "9BW1A2B3C4D5E6F70", 1, "08:00 as 09:00"),
		passRec(domain.AreaInspecaoOffline, domain.ModelEQE, "XYZ99", 1, "08:00 as 09:00"),
	}

	f := dayFilter(domain.AreaAll)
	f.VINQuery = "9bw1"
	s := Compute(pass, nil, nil, f)

	if s.TotalOK != 1 {
		t.Fatalf("vin query matched %d records, want 1", s.TotalOK)
	}
	if len(s.VINHistory) != 1 || s.VINHistory[0].VIN != "9BW1A2B3C4D5E6F70" {
		t.Fatalf("vin history = %+v", s.VINHistory)
	}
}

func TestComputeSlotSeriesSorted(t *testing.T) {
	pass := []domain.PassRecord{
		passRec(domain.AreaLinhaOK, domain.ModelEQE, "", 1, "09:00 as 09:50"),
		passRec(domain.AreaLinhaOK, domain.ModelEQE, "", 2, "08:00 as 09:00"),
		passRec(domain.AreaLinhaOK, domain.ModelEQE, "", 3, ""),
	}
	defects := []domain.DefectRecord{
		defectRec(domain.AreaLinhaOK, domain.ModelEQE, "", "Risco", 1, "08:00 as 09:00"),
	}

	s := Compute(pass, defects, nil, dayFilter(domain.AreaAll))

	if len(s.TimeSlotSeries) != 2 {
		t.Fatalf("slot rows = %d, want 2 (empty slot excluded)", len(s.TimeSlotSeries))
	}
	if s.TimeSlotSeries[0].Slot != "08:00 as 09:00" || s.TimeSlotSeries[1].Slot != "09:00 as 09:50" {
		t.Fatalf("slot order = %q, %q", s.TimeSlotSeries[0].Slot, s.TimeSlotSeries[1].Slot)
	}
	if s.TimeSlotSeries[0].OK != 2 || s.TimeSlotSeries[0].Defects != 1 || s.TimeSlotSeries[0].Total != 3 {
		t.Fatalf("first slot = %+v", s.TimeSlotSeries[0])
	}
	// Empty-slot record still counts toward totals.
	if s.TotalOK != 6 {
		t.Fatalf("total ok = %d, want 6", s.TotalOK)
	}
}

func TestComputeTopDefects(t *testing.T) {
	var defects []domain.DefectRecord
	defects = append(defects,
		defectRec(domain.AreaLinhaOK, domain.ModelEQE, "", "  risco na porta ", 2, "08:00 as 09:00"),
		defectRec(domain.AreaLinhaOK, domain.ModelEQE, "", "RISCO NA PORTA", 3, "09:00 as 09:50"),
		defectRec(domain.AreaLinhaDeTeste, domain.ModelEQE, "", "Risco na porta", 4, "08:00 as 09:00"),
		defectRec(domain.AreaInspecaoOffline, domain.ModelEQE, "", "Risco na porta", 4, "08:00 as 09:00"),
		defectRec(domain.AreaLinhaOK, domain.ModelEQE, "", "Vazamento", 0, "08:00 as 09:00"),
	)
	for i := 0; i < 12; i++ {
		defects = append(defects,
			defectRec(domain.AreaTesteDeChuva, domain.ModelEQE, "", "Defeito "+string(rune('A'+i)), 1, "08:00 as 09:00"))
	}

	s := Compute(nil, defects, nil, dayFilter(domain.AreaAll))

	if len(s.TopDefects) != 10 {
		t.Fatalf("top defects = %d entries, want 10", len(s.TopDefects))
	}
	// Case/whitespace variants merge. The tag is the area's first word, so
	// "Linha OK" and "Linha de Teste" both render [LINHA] and share a line;
	// an area with a different first word stays separate.
	if s.TopDefects[0].Name != "RISCO NA PORTA [LINHA]" || s.TopDefects[0].Quantity != 9 {
		t.Fatalf("top entry = %+v", s.TopDefects[0])
	}
	if s.TopDefects[1].Name != "RISCO NA PORTA [INSPEÇÃO]" || s.TopDefects[1].Quantity != 4 {
		t.Fatalf("second entry = %+v", s.TopDefects[1])
	}
	for i := 1; i < len(s.TopDefects); i++ {
		prev, cur := s.TopDefects[i-1], s.TopDefects[i]
		if cur.Quantity > prev.Quantity {
			t.Fatalf("top defects not sorted at %d: %+v before %+v", i, prev, cur)
		}
		if cur.Quantity == prev.Quantity && cur.Name < prev.Name {
			t.Fatalf("tie not broken by name at %d", i)
		}
	}
	for _, d := range s.TopDefects {
		if d.Quantity <= 0 {
			t.Fatalf("zero-quantity defect ranked: %+v", d)
		}
	}
}

func TestComputeTopDefectsSingleAreaOmitsTag(t *testing.T) {
	defects := []domain.DefectRecord{
		defectRec(domain.AreaLinhaOK, domain.ModelEQE, "", "Risco na porta", 2, "08:00 as 09:00"),
	}
	s := Compute(nil, defects, nil, dayFilter(domain.AreaLinhaOK))

	if len(s.TopDefects) != 1 || s.TopDefects[0].Name != "RISCO NA PORTA" {
		t.Fatalf("top defects = %+v", s.TopDefects)
	}
}

func TestComputeSectionSuffix(t *testing.T) {
	rec := defectRec(domain.AreaTesteDeEstrada, domain.ModelEQE, "", "Ruído", 1, "08:00 as 09:00")
	rec.ActingSection = "Chassis"

	s := Compute(nil, []domain.DefectRecord{rec}, nil, dayFilter(domain.AreaTesteDeEstrada))

	if len(s.TopDefects) != 1 || s.TopDefects[0].Name != "RUÍDO (CHASSIS)" {
		t.Fatalf("top defects = %+v", s.TopDefects)
	}
}

func TestComputeChartScopeGeneral(t *testing.T) {
	pass := []domain.PassRecord{
		passRec(domain.AreaLinhaOK, domain.ModelEQE, "", 2, "08:00 as 09:00"),
		passRec(domain.AreaTesteDeChuva, domain.ModelSA2, "", 5, "09:00 as 09:50"),
	}

	f := dayFilter(domain.AreaLinhaOK)
	s := Compute(pass, nil, nil, f)
	if s.TotalOK != 2 {
		t.Fatalf("card total = %d, want 2", s.TotalOK)
	}
	if len(s.TimeSlotSeries) != 1 {
		t.Fatalf("selected scope slot rows = %d, want 1", len(s.TimeSlotSeries))
	}

	f.ChartScope = ScopeGeneral
	s = Compute(pass, nil, nil, f)
	if s.TotalOK != 2 {
		t.Fatalf("cards must stay pinned, got total %d", s.TotalOK)
	}
	if len(s.TimeSlotSeries) != 2 {
		t.Fatalf("general scope slot rows = %d, want 2", len(s.TimeSlotSeries))
	}
	var modelSA2 ModelSummary
	for _, m := range s.ModelStats {
		if m.Model == domain.ModelSA2 {
			modelSA2 = m
		}
	}
	if modelSA2.OK != 5 {
		t.Fatalf("general scope should include other areas in model chart, got %+v", modelSA2)
	}
}

func TestComputeSubAreaDetail(t *testing.T) {
	p := passRec(domain.AreaInspecaoOffline, domain.ModelEQE, "9BW1", 2, "08:00 as 09:00")
	p.ActingSection = domain.SectionsOffline[0]
	d := defectRec(domain.AreaInspecaoOffline, domain.ModelEQE, "9BW1", "Risco", 1, "08:00 as 09:00")
	d.ActingSection = domain.SectionsOffline[0]

	s := Compute([]domain.PassRecord{p}, []domain.DefectRecord{d}, nil,
		dayFilter(domain.AreaInspecaoOffline))

	if s.SubAreaDetail == nil {
		t.Fatal("expected sub-area detail for Inspeção OffLine")
	}
	det := *s.SubAreaDetail
	if len(det.Sections) != len(domain.SectionsOffline) {
		t.Fatalf("sections = %d, want %d", len(det.Sections), len(domain.SectionsOffline))
	}
	if len(det.SlotSeries) != 1 {
		t.Fatalf("detail slot rows = %d, want 1", len(det.SlotSeries))
	}
	if got := det.SlotSeries[0].Totals[domain.SectionsOffline[0]]; got != 3 {
		t.Fatalf("section slot total = %d, want 3", got)
	}
	if len(det.Totals) != 1 {
		t.Fatalf("section totals rows = %d, want 1 (all-zero rows dropped)", len(det.Totals))
	}
	if det.Totals[0].Total != 3 || det.Totals[0].Defects != 1 {
		t.Fatalf("section totals = %+v", det.Totals[0])
	}
}

func TestComputeNoDetailForPlainArea(t *testing.T) {
	s := Compute(nil, nil, nil, dayFilter(domain.AreaLinhaOK))
	if s.SubAreaDetail != nil {
		t.Fatalf("unexpected detail for area without sections")
	}
}

func TestComputeVINHistoryNewestFirst(t *testing.T) {
	p := passRec(domain.AreaInspecaoOffline, domain.ModelEQE, "9BW1", 1, "08:00 as 09:00")
	p.Timestamp = domain.EpochMillis(day.Add(8 * time.Hour))
	d := defectRec(domain.AreaInspecaoOffline, domain.ModelEQE, "9BW1", "Risco", 1, "09:00 as 09:50")
	d.Timestamp = domain.EpochMillis(day.Add(10 * time.Hour))

	s := Compute([]domain.PassRecord{p}, []domain.DefectRecord{d}, nil, dayFilter(domain.AreaAll))

	if len(s.VINHistory) != 2 {
		t.Fatalf("history entries = %d, want 2", len(s.VINHistory))
	}
	if s.VINHistory[0].Kind != domain.KindDefect || s.VINHistory[1].Kind != domain.KindPass {
		t.Fatalf("history order = %+v", s.VINHistory)
	}
}

func TestComputeDowntimeIgnoresVINQuery(t *testing.T) {
	downtime := []domain.DowntimeRecord{downtimeRec(domain.AreaLinhaOK, 45)}

	f := dayFilter(domain.AreaAll)
	f.VINQuery = "9BW1"
	s := Compute(nil, nil, downtime, f)

	if s.TotalDowntimeHours != "0.8" {
		t.Fatalf("downtime hours = %q, want 0.8", s.TotalDowntimeHours)
	}
}
