// SPDX-License-Identifier: Apache-2.0

// Package entry implements the operator entry workflow: it normalizes raw
// form input into store-ready records and performs the advisory
// duplicate-entry checks. The aggregation engine tolerates duplicates, so a
// bypassed check degrades reporting, not correctness.
package entry

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vqtrack/vqtrack/internal/domain"
)

// InspectionInput is the raw operator form payload for pass and defect
// entries. EntryDate is a "YYYY-MM-DD" calendar date; StartTime and EndTime
// are "HH:MM" clock strings combined into the stored time slot.
type InspectionInput struct {
	Kind           domain.RecordKind
	Model          domain.CarModel
	Area           domain.Area
	VIN            string
	DefectType     string
	Quantity       int
	OperatorID     string
	EntryDate      string
	StartTime      string
	EndTime        string
	ActingSection  string
	ReleaseNote    string
	IsReinspection bool
}

type DowntimeInput struct {
	Area       domain.Area
	StartTime  string
	EndTime    string
	Reason     string
	OperatorID string
}

// NormalizeVIN trims and upper-cases a VIN. All stored VINs pass through
// this, which is what makes the engine's case-insensitive match reliable.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

func (in InspectionInput) validate() error {
	if !domain.ValidArea(in.Area) {
		return domain.ErrUnknownArea
	}
	if !domain.ValidModel(in.Model) {
		return domain.ErrUnknownModel
	}
	if in.Quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	if in.StartTime == "" || in.EndTime == "" {
		return domain.ErrMissingTimeSlot
	}
	if _, err := domain.ParseClock(in.StartTime); err != nil {
		return err
	}
	if _, err := domain.ParseClock(in.EndTime); err != nil {
		return err
	}

	if domain.HasSections(in.Area) {
		if !validSection(in.Area, in.ActingSection) {
			return domain.ErrMissingSection
		}
	}

	// VIN and operator id are mandatory only at the offline inspection post.
	if in.Area == domain.AreaInspecaoOffline {
		if NormalizeVIN(in.VIN) == "" {
			return domain.ErrMissingVIN
		}
		if strings.TrimSpace(in.OperatorID) == "" {
			return domain.ErrMissingOperator
		}
	}

	switch in.Kind {
	case domain.KindDefect:
		if strings.TrimSpace(in.DefectType) == "" {
			return domain.ErrMissingDefectType
		}
	case domain.KindPass:
		if in.Area == domain.AreaInspecaoOffline && strings.TrimSpace(in.ReleaseNote) == "" {
			return domain.ErrMissingReleaseNote
		}
	}

	return nil
}

func validSection(area domain.Area, section string) bool {
	for _, opt := range domain.SectionsFor(area) {
		if section == opt {
			return true
		}
	}
	return false
}

// Timestamp derives the stored epoch-millis timestamp for an entry date:
// the current instant when the date is today, otherwise noon of that date so
// backdated entries land inside their calendar day in any nearby time zone.
func Timestamp(entryDate string, now time.Time) (int64, error) {
	parsed, err := time.ParseInLocation("2006-01-02", entryDate, now.Location())
	if err != nil {
		return 0, fmt.Errorf("invalid entry date %q: %w", entryDate, err)
	}
	y, m, d := now.Date()
	py, pm, pd := parsed.Date()
	if y == py && m == pm && d == pd {
		return domain.EpochMillis(now), nil
	}
	noon := time.Date(py, pm, pd, 12, 0, 0, 0, now.Location())
	return domain.EpochMillis(noon), nil
}

// EditTimestamp preserves the original timestamp unless the entry moved to a
// different calendar date.
func EditTimestamp(original int64, entryDate string, now time.Time) (int64, error) {
	if domain.DateOf(original).Format("2006-01-02") == entryDate {
		return original, nil
	}
	return Timestamp(entryDate, now)
}

func (in InspectionInput) normalized(now time.Time) (InspectionInput, int64, error) {
	if err := in.validate(); err != nil {
		return in, 0, err
	}
	ts, err := Timestamp(in.EntryDate, now)
	if err != nil {
		return in, 0, err
	}
	in.VIN = NormalizeVIN(in.VIN)
	in.DefectType = strings.TrimSpace(in.DefectType)
	in.ReleaseNote = strings.TrimSpace(in.ReleaseNote)
	if !domain.HasSections(in.Area) {
		in.ActingSection = ""
		in.ReleaseNote = ""
	}
	return in, ts, nil
}

// BuildPass turns validated input into a store-ready pass record.
func BuildPass(in InspectionInput, now time.Time) (domain.PassRecord, error) {
	in.Kind = domain.KindPass
	in, ts, err := in.normalized(now)
	if err != nil {
		return domain.PassRecord{}, err
	}
	return domain.PassRecord{
		ID:             uuid.New(),
		Timestamp:      ts,
		Model:          in.Model,
		Area:           in.Area,
		VIN:            in.VIN,
		Quantity:       in.Quantity,
		OperatorID:     strings.TrimSpace(in.OperatorID),
		TimeSlot:       domain.CombineSlot(in.StartTime, in.EndTime),
		ActingSection:  in.ActingSection,
		ReleaseNote:    in.ReleaseNote,
		IsReinspection: in.IsReinspection,
	}, nil
}

// BuildDefect turns validated input into a store-ready defect record.
func BuildDefect(in InspectionInput, now time.Time) (domain.DefectRecord, error) {
	in.Kind = domain.KindDefect
	in, ts, err := in.normalized(now)
	if err != nil {
		return domain.DefectRecord{}, err
	}
	return domain.DefectRecord{
		ID:             uuid.New(),
		Timestamp:      ts,
		Model:          in.Model,
		Area:           in.Area,
		VIN:            in.VIN,
		DefectType:     in.DefectType,
		Quantity:       in.Quantity,
		OperatorID:     strings.TrimSpace(in.OperatorID),
		TimeSlot:       domain.CombineSlot(in.StartTime, in.EndTime),
		ActingSection:  in.ActingSection,
		ReleaseNote:    in.ReleaseNote,
		IsReinspection: in.IsReinspection,
	}, nil
}

// BuildDowntime validates and derives the wraparound duration; zero-length
// stoppages are rejected.
func BuildDowntime(in DowntimeInput, now time.Time) (domain.DowntimeRecord, error) {
	if !domain.ValidArea(in.Area) {
		return domain.DowntimeRecord{}, domain.ErrUnknownArea
	}
	if in.StartTime == "" || in.EndTime == "" {
		return domain.DowntimeRecord{}, domain.ErrMissingTimeSlot
	}
	duration, err := domain.WrapDuration(in.StartTime, in.EndTime)
	if err != nil {
		return domain.DowntimeRecord{}, err
	}
	if duration == 0 {
		return domain.DowntimeRecord{}, domain.ErrZeroDuration
	}
	return domain.DowntimeRecord{
		ID:              uuid.New(),
		Timestamp:       domain.EpochMillis(now),
		Area:            in.Area,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		DurationMinutes: duration,
		Reason:          in.Reason,
		OperatorID:      strings.TrimSpace(in.OperatorID),
	}, nil
}

// CheckDuplicatePass flags an identical prior entry on the composite key of
// VIN, area, model, reinspection flag, acting section and time slot. Empty
// VINs are never flagged. The check is advisory and intentionally slot-
// scoped: the same vehicle may legitimately appear in different slots.
func CheckDuplicatePass(rec domain.PassRecord, existing []domain.PassRecord, skipID uuid.UUID) error {
	if rec.VIN == "" {
		return nil
	}
	for _, r := range existing {
		if r.ID == skipID {
			continue
		}
		if strings.EqualFold(r.VIN, rec.VIN) &&
			r.Area == rec.Area &&
			r.Model == rec.Model &&
			r.IsReinspection == rec.IsReinspection &&
			r.ActingSection == rec.ActingSection &&
			r.TimeSlot == rec.TimeSlot {
			return domain.ErrDuplicateEntry
		}
	}
	return nil
}

// CheckDuplicateDefect flags an identical prior defect on VIN, area, defect
// description (case-insensitive), acting section and time slot.
func CheckDuplicateDefect(rec domain.DefectRecord, existing []domain.DefectRecord, skipID uuid.UUID) error {
	if rec.VIN == "" {
		return nil
	}
	for _, r := range existing {
		if r.ID == skipID {
			continue
		}
		if strings.EqualFold(r.VIN, rec.VIN) &&
			r.Area == rec.Area &&
			strings.EqualFold(r.DefectType, rec.DefectType) &&
			r.ActingSection == rec.ActingSection &&
			r.TimeSlot == rec.TimeSlot {
			return domain.ErrDuplicateEntry
		}
	}
	return nil
}
