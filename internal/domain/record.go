// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"time"

	"github.com/google/uuid"
)

type RecordKind string

const (
	KindPass   RecordKind = "OK"
	KindDefect RecordKind = "NOT_OK"
)

// PassRecord is one approved-vehicle entry. Timestamp is epoch milliseconds;
// the calendar date derived from it (local time) drives all range filtering.
type PassRecord struct {
	ID             uuid.UUID `json:"id"`
	Timestamp      int64     `json:"timestamp"`
	Model          CarModel  `json:"model"`
	Area           Area      `json:"area"`
	VIN            string    `json:"vin"`
	Quantity       int       `json:"quantity"`
	OperatorID     string    `json:"operator_id"`
	TimeSlot       string    `json:"time_slot"`
	ActingSection  string    `json:"acting_section,omitempty"`
	ReleaseNote    string    `json:"release_note,omitempty"`
	IsReinspection bool      `json:"is_reinspection,omitempty"`
}

// DefectRecord has the same shape as PassRecord plus the defect description.
// Quantity counts defective units for that description.
type DefectRecord struct {
	ID             uuid.UUID `json:"id"`
	Timestamp      int64     `json:"timestamp"`
	Model          CarModel  `json:"model"`
	Area           Area      `json:"area"`
	VIN            string    `json:"vin"`
	DefectType     string    `json:"defect_type"`
	Quantity       int       `json:"quantity"`
	OperatorID     string    `json:"operator_id"`
	TimeSlot       string    `json:"time_slot"`
	ActingSection  string    `json:"acting_section,omitempty"`
	ReleaseNote    string    `json:"release_note,omitempty"`
	IsReinspection bool      `json:"is_reinspection,omitempty"`
}

// DowntimeRecord is one line-stoppage entry. StartTime and EndTime are
// "HH:MM" clock strings; DurationMinutes is the wraparound difference.
type DowntimeRecord struct {
	ID              uuid.UUID `json:"id"`
	Timestamp       int64     `json:"timestamp"`
	Area            Area      `json:"area"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Reason          string    `json:"reason"`
	OperatorID      string    `json:"operator_id,omitempty"`
}

// EpochMillis converts a time to the record timestamp representation.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// DateOf returns the local calendar date of a record timestamp, truncated to
// midnight. Date-only comparisons against filter bounds use this value.
func DateOf(timestampMillis int64) time.Time {
	t := time.UnixMilli(timestampMillis).Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
