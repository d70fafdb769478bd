// SPDX-License-Identifier: Apache-2.0

package stats

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vqtrack/vqtrack/internal/domain"
)

// Compute derives the full statistics object from snapshots of the three
// record collections. Empty inputs yield zero totals and empty slices, never
// an error.
func Compute(
	pass []domain.PassRecord,
	defects []domain.DefectRecord,
	downtime []domain.DowntimeRecord,
	f Filter,
) Statistics {
	start := truncateDate(f.StartDate)
	end := truncateDate(f.EndDate)
	vinQuery := strings.ToUpper(strings.TrimSpace(f.VINQuery))

	inRange := func(ts int64) bool {
		d := domain.DateOf(ts)
		return !d.Before(start) && !d.After(end)
	}
	matchVIN := func(vin string) bool {
		return vinQuery == "" || strings.Contains(strings.ToUpper(vin), vinQuery)
	}
	matchArea := func(a domain.Area) bool {
		return f.Area == domain.AreaAll || a == f.Area
	}

	// Card-scoped sets: date + VIN + selected area. Downtime has no VIN, so
	// only date and area apply to it.
	var filteredPass []domain.PassRecord
	for _, r := range pass {
		if inRange(r.Timestamp) && matchVIN(r.VIN) && matchArea(r.Area) {
			filteredPass = append(filteredPass, r)
		}
	}
	var filteredDefects []domain.DefectRecord
	for _, r := range defects {
		if inRange(r.Timestamp) && matchVIN(r.VIN) && matchArea(r.Area) {
			filteredDefects = append(filteredDefects, r)
		}
	}
	var filteredDowntime []domain.DowntimeRecord
	for _, r := range downtime {
		if inRange(r.Timestamp) && matchArea(r.Area) {
			filteredDowntime = append(filteredDowntime, r)
		}
	}

	// Chart-scoped sets: all areas whenever no single area is selected or the
	// chart scope is widened to the whole plant.
	chartPass := filteredPass
	chartDefects := filteredDefects
	if f.Area == domain.AreaAll || f.ChartScope == ScopeGeneral {
		chartPass = nil
		for _, r := range pass {
			if inRange(r.Timestamp) && matchVIN(r.VIN) {
				chartPass = append(chartPass, r)
			}
		}
		chartDefects = nil
		for _, r := range defects {
			if inRange(r.Timestamp) && matchVIN(r.VIN) {
				chartDefects = append(chartDefects, r)
			}
		}
	}

	totalOK := 0
	totalRe := 0
	for _, r := range filteredPass {
		totalOK += r.Quantity
		if r.IsReinspection {
			totalRe += r.Quantity
		}
	}
	totalDefects := 0
	for _, r := range filteredDefects {
		totalDefects += r.Quantity
		if r.IsReinspection {
			totalRe += r.Quantity
		}
	}
	downtimeMinutes := 0
	for _, r := range filteredDowntime {
		downtimeMinutes += r.DurationMinutes
	}

	out := Statistics{
		TotalOK:            totalOK,
		TotalDefects:       totalDefects,
		TotalProcessed:     totalOK + totalDefects,
		TotalDowntimeHours: formatHours(downtimeMinutes),
		TotalReinspections: totalRe,
		OverallFTT:         rate(totalOK, totalOK+totalDefects),
		AreaStats:          areaBreakdown(pass, defects, downtime, inRange, matchVIN),
		TimeSlotSeries:     slotSeries(chartPass, chartDefects),
		ModelStats:         modelBreakdown(chartPass, chartDefects),
		TopDefects:         topDefects(chartDefects, f),
		VINHistory:         vinHistory(filteredPass, filteredDefects),
		FilteredPass:       filteredPass,
		FilteredDefects:    filteredDefects,
		FilteredDowntime:   filteredDowntime,
	}

	if domain.HasSections(f.Area) {
		detail := sectionDetail(f.Area, filteredPass, filteredDefects, out.TimeSlotSeries)
		out.SubAreaDetail = &detail
	}

	return out
}

func truncateDate(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// rate renders num/denom as a percentage with one decimal place, "0.0" when
// the denominator is zero.
func rate(num, denom int) string {
	if denom == 0 {
		return "0.0"
	}
	return strconv.FormatFloat(float64(num)/float64(denom)*100, 'f', 1, 64)
}

func formatHours(minutes int) string {
	return strconv.FormatFloat(float64(minutes)/60, 'f', 1, 64)
}

// areaBreakdown partitions the date+VIN filtered data over the closed area
// set, ignoring the selected-area filter.
func areaBreakdown(
	pass []domain.PassRecord,
	defects []domain.DefectRecord,
	downtime []domain.DowntimeRecord,
	inRange func(int64) bool,
	matchVIN func(string) bool,
) []AreaSummary {
	out := make([]AreaSummary, 0, len(domain.Areas))
	for _, area := range domain.Areas {
		var s AreaSummary
		s.Area = area
		for _, r := range pass {
			if r.Area == area && inRange(r.Timestamp) && matchVIN(r.VIN) {
				s.OK += r.Quantity
				if r.IsReinspection {
					s.Reinspections += r.Quantity
				}
			}
		}
		for _, r := range defects {
			if r.Area == area && inRange(r.Timestamp) && matchVIN(r.VIN) {
				s.Defects += r.Quantity
				if r.IsReinspection {
					s.Reinspections += r.Quantity
				}
			}
		}
		for _, r := range downtime {
			if r.Area == area && inRange(r.Timestamp) {
				s.DowntimeMinutes += r.DurationMinutes
			}
		}
		s.Total = s.OK + s.Defects
		s.FTT = rate(s.OK, s.Total)
		out = append(out, s)
	}
	return out
}

// activeSlots returns the distinct non-empty slot strings, sorted ascending
// by start time. Records with an empty slot are excluded from slot groupings
// but still count toward totals.
func activeSlots(pass []domain.PassRecord, defects []domain.DefectRecord) []string {
	seen := make(map[string]struct{})
	var slots []string
	add := func(slot string) {
		if slot == "" {
			return
		}
		if _, ok := seen[slot]; ok {
			return
		}
		seen[slot] = struct{}{}
		slots = append(slots, slot)
	}
	for _, r := range pass {
		add(r.TimeSlot)
	}
	for _, r := range defects {
		add(r.TimeSlot)
	}
	sort.Slice(slots, func(i, j int) bool {
		si, sj := domain.SlotStart(slots[i]), domain.SlotStart(slots[j])
		if si != sj {
			return si < sj
		}
		return slots[i] < slots[j]
	})
	return slots
}

func slotSeries(pass []domain.PassRecord, defects []domain.DefectRecord) []SlotSummary {
	slots := activeSlots(pass, defects)
	out := make([]SlotSummary, 0, len(slots))
	for _, slot := range slots {
		var s SlotSummary
		s.Slot = slot
		for _, r := range pass {
			if r.TimeSlot == slot {
				s.OK += r.Quantity
			}
		}
		for _, r := range defects {
			if r.TimeSlot == slot {
				s.Defects += r.Quantity
			}
		}
		s.Total = s.OK + s.Defects
		out = append(out, s)
	}
	return out
}

func modelBreakdown(pass []domain.PassRecord, defects []domain.DefectRecord) []ModelSummary {
	out := make([]ModelSummary, 0, len(domain.Models))
	for _, m := range domain.Models {
		var s ModelSummary
		s.Model = m
		for _, r := range pass {
			if r.Model == m {
				s.OK += r.Quantity
			}
		}
		for _, r := range defects {
			if r.Model == m {
				s.Defects += r.Quantity
			}
		}
		s.Total = s.OK + s.Defects
		out = append(out, s)
	}
	return out
}

// topDefects ranks defect quantity by normalized description. In the
// all-areas view the area's first word is appended as a tag, so areas that
// share a first word ("Linha OK", "Linha de Teste") group together.
func topDefects(defects []domain.DefectRecord, f Filter) []DefectCount {
	allAreas := f.Area == domain.AreaAll || f.ChartScope == ScopeGeneral
	grouped := make(map[string]int)
	for _, d := range defects {
		if d.Quantity <= 0 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(d.DefectType))
		if allAreas {
			key += " [" + strings.ToUpper(firstWord(string(d.Area))) + "]"
		}
		if d.ActingSection != "" {
			key += " (" + strings.ToUpper(d.ActingSection) + ")"
		}
		grouped[key] += d.Quantity
	}

	ranked := make([]DefectCount, 0, len(grouped))
	for name, qty := range grouped {
		if qty <= 0 {
			continue
		}
		ranked = append(ranked, DefectCount{Name: name, Quantity: qty})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity != ranked[j].Quantity {
			return ranked[i].Quantity > ranked[j].Quantity
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}
	return ranked
}

func firstWord(s string) string {
	word, _, _ := strings.Cut(s, " ")
	return word
}

// sectionDetail breaks the area-filtered data down by acting section. The
// slot axis reuses the chart slot series so both detail charts line up.
func sectionDetail(
	area domain.Area,
	pass []domain.PassRecord,
	defects []domain.DefectRecord,
	slots []SlotSummary,
) SubAreaDetail {
	sections := domain.SectionsFor(area)
	detail := SubAreaDetail{
		Area:       area,
		Sections:   sections,
		SlotSeries: make([]SectionSlot, 0, len(slots)),
	}

	for _, slot := range slots {
		row := SectionSlot{Slot: slot.Slot, Totals: make(map[string]int, len(sections))}
		for _, section := range sections {
			total := 0
			for _, r := range pass {
				if r.Area == area && r.ActingSection == section && r.TimeSlot == slot.Slot {
					total += r.Quantity
				}
			}
			for _, r := range defects {
				if r.Area == area && r.ActingSection == section && r.TimeSlot == slot.Slot {
					total += r.Quantity
				}
			}
			row.Totals[section] = total
		}
		detail.SlotSeries = append(detail.SlotSeries, row)
	}

	for _, section := range sections {
		var t SectionTotal
		t.Section = section
		for _, r := range pass {
			if r.Area == area && r.ActingSection == section {
				t.Total += r.Quantity
			}
		}
		for _, r := range defects {
			if r.Area == area && r.ActingSection == section {
				t.Total += r.Quantity
				t.Defects += r.Quantity
			}
		}
		if t.Total == 0 && t.Defects == 0 {
			continue
		}
		detail.Totals = append(detail.Totals, t)
	}

	return detail
}

// vinHistory merges the area-filtered pass and defect records into one
// dossier timeline, newest first.
func vinHistory(pass []domain.PassRecord, defects []domain.DefectRecord) []VINEvent {
	events := make([]VINEvent, 0, len(pass)+len(defects))
	for _, r := range pass {
		events = append(events, VINEvent{
			Kind:           domain.KindPass,
			Timestamp:      r.Timestamp,
			Area:           r.Area,
			Model:          r.Model,
			VIN:            r.VIN,
			Quantity:       r.Quantity,
			TimeSlot:       r.TimeSlot,
			ActingSection:  r.ActingSection,
			ReleaseNote:    r.ReleaseNote,
			OperatorID:     r.OperatorID,
			IsReinspection: r.IsReinspection,
		})
	}
	for _, r := range defects {
		events = append(events, VINEvent{
			Kind:           domain.KindDefect,
			Timestamp:      r.Timestamp,
			Area:           r.Area,
			Model:          r.Model,
			VIN:            r.VIN,
			Quantity:       r.Quantity,
			TimeSlot:       r.TimeSlot,
			ActingSection:  r.ActingSection,
			DefectType:     r.DefectType,
			ReleaseNote:    r.ReleaseNote,
			OperatorID:     r.OperatorID,
			IsReinspection: r.IsReinspection,
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})
	return events
}
