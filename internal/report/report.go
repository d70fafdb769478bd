// SPDX-License-Identifier: Apache-2.0

// Package report renders the filtered record sets into the shop-floor export
// formats: an xlsx workbook, a chat summary, a bilingual-era slide deck kept
// as paged PDF, and the VIN dossier and operator log PDFs.
package report

import (
	"strings"
	"time"

	"github.com/vqtrack/vqtrack/internal/domain"
)

// Period selects the slide deck window.
type Period string

const (
	PeriodWeekly  Period = "WEEKLY"
	PeriodMonthly Period = "MONTHLY"
	PeriodAnnual  Period = "ANNUAL"
)

// Days returns the lookback window of the period. Unknown periods fall back
// to weekly.
func (p Period) Days() int {
	switch p {
	case PeriodMonthly:
		return 30
	case PeriodAnnual:
		return 365
	default:
		return 7
	}
}

// LabelPT is the Portuguese period label used in file names and deck titles.
func (p Period) LabelPT() string {
	switch p {
	case PeriodMonthly:
		return "Mensal"
	case PeriodAnnual:
		return "Anual"
	default:
		return "Semanal"
	}
}

func ValidPeriod(p Period) bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodAnnual:
		return true
	}
	return false
}

// AreaLabel renders the area filter for titles and file names; the all-areas
// view is labelled Geral.
func AreaLabel(area domain.Area) string {
	if area == domain.AreaAll || area == "" {
		return "Geral"
	}
	return string(area)
}

// cleanName makes an area label safe for file names.
func cleanName(label string) string {
	return strings.Join(strings.Fields(label), "_")
}

func dateSuffix(now time.Time) string {
	return now.Format("2006-01-02")
}

// formatDate renders record dates in the pt-BR day-first convention.
func formatDate(ts int64) string {
	return time.UnixMilli(ts).Local().Format("02/01/2006")
}

func formatTime(ts int64) string {
	return time.UnixMilli(ts).Local().Format("15:04:05")
}

func formatClock(ts int64) string {
	return time.UnixMilli(ts).Local().Format("15:04")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func simNao(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
