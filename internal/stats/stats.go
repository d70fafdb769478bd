// SPDX-License-Identifier: Apache-2.0

// Package stats derives dashboard statistics from the three record
// collections. Compute is a pure function: it never mutates its inputs,
// performs no I/O, and is recomputed from scratch on every filter or data
// change.
package stats

import (
	"time"

	"github.com/vqtrack/vqtrack/internal/domain"
)

// Scope selects which data feeds the trend charts when a single area is
// pinned on the KPI cards.
type Scope string

const (
	// ScopeSelected keeps charts on the same area as the cards.
	ScopeSelected Scope = "SELECTED"
	// ScopeGeneral widens charts to all areas while cards stay pinned.
	ScopeGeneral Scope = "GENERAL"
)

// Filter narrows the record collections before aggregation. StartDate and
// EndDate are inclusive and date-only (local calendar dates); VINQuery is a
// case-insensitive substring match, empty for no VIN restriction.
type Filter struct {
	StartDate  time.Time
	EndDate    time.Time
	Area       domain.Area
	VINQuery   string
	ChartScope Scope
}

// AreaSummary is one row of the per-area breakdown. FTT is the first-time-
// through rate with one decimal place, "0.0" when the area total is zero.
type AreaSummary struct {
	Area            domain.Area `json:"area"`
	OK              int         `json:"ok"`
	Defects         int         `json:"nok"`
	Total           int         `json:"total"`
	DowntimeMinutes int         `json:"downtime_minutes"`
	Reinspections   int         `json:"reinspections"`
	FTT             string      `json:"ftt"`
}

type SlotSummary struct {
	Slot    string `json:"slot"`
	OK      int    `json:"ok"`
	Defects int    `json:"nok"`
	Total   int    `json:"total"`
}

type ModelSummary struct {
	Model   domain.CarModel `json:"model"`
	OK      int             `json:"ok"`
	Defects int             `json:"nok"`
	Total   int             `json:"total"`
}

type DefectCount struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// SectionSlot is one time-slot row of the acting-section detail, with the
// combined OK+defect quantity per section option.
type SectionSlot struct {
	Slot   string         `json:"slot"`
	Totals map[string]int `json:"totals"`
}

type SectionTotal struct {
	Section string `json:"section"`
	Total   int    `json:"total"`
	Defects int    `json:"defects"`
}

// SubAreaDetail is only produced for the two areas that carry acting
// sections; Sections preserves the fixed option order of the area.
type SubAreaDetail struct {
	Area       domain.Area    `json:"area"`
	Sections   []string       `json:"sections"`
	SlotSeries []SectionSlot  `json:"slot_series"`
	Totals     []SectionTotal `json:"section_totals"`
}

// VINEvent is one entry of the inspection dossier for a vehicle.
type VINEvent struct {
	Kind           domain.RecordKind `json:"kind"`
	Timestamp      int64             `json:"timestamp"`
	Area           domain.Area       `json:"area"`
	Model          domain.CarModel   `json:"model"`
	VIN            string            `json:"vin"`
	Quantity       int               `json:"quantity"`
	TimeSlot       string            `json:"time_slot"`
	ActingSection  string            `json:"acting_section,omitempty"`
	DefectType     string            `json:"defect_type,omitempty"`
	ReleaseNote    string            `json:"release_note,omitempty"`
	OperatorID     string            `json:"operator_id,omitempty"`
	IsReinspection bool              `json:"is_reinspection,omitempty"`
}

// Statistics is the full derived output for one filter specification. The
// Filtered* slices are the card-scoped record sets; report formatters consume
// them directly instead of re-deriving the filtering rules.
type Statistics struct {
	TotalOK            int    `json:"total_ok"`
	TotalDefects       int    `json:"total_defects"`
	TotalProcessed     int    `json:"total_processed"`
	TotalDowntimeHours string `json:"total_downtime_hours"`
	TotalReinspections int    `json:"total_reinspections"`
	OverallFTT         string `json:"overall_ftt"`

	AreaStats      []AreaSummary  `json:"area_stats"`
	TopDefects     []DefectCount  `json:"top_defects"`
	TimeSlotSeries []SlotSummary  `json:"time_slot_series"`
	SubAreaDetail  *SubAreaDetail `json:"sub_area_detail,omitempty"`
	ModelStats     []ModelSummary `json:"model_stats"`
	VINHistory     []VINEvent     `json:"vin_history"`

	FilteredPass     []domain.PassRecord     `json:"-"`
	FilteredDefects  []domain.DefectRecord   `json:"-"`
	FilteredDowntime []domain.DowntimeRecord `json:"-"`
}
