// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SlotSeparator joins the start and end clock times of a stored time slot.
const SlotSeparator = " as "

// CombineSlot builds the canonical two-part slot string from clock times.
func CombineSlot(start, end string) string {
	return start + SlotSeparator + end
}

// SlotStart returns the sort key of a slot: the "HH:MM" prefix before the
// separator. Slots without the separator sort on the whole string.
func SlotStart(slot string) string {
	start, _, _ := strings.Cut(slot, SlotSeparator)
	return start
}

// ParseClock parses an "HH:MM" string into minutes since midnight.
func ParseClock(clock string) (int, error) {
	h, m, ok := strings.Cut(clock, ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock time %q", clock)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid clock time %q", clock)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid clock time %q", clock)
	}
	return hours*60 + minutes, nil
}

// WrapDuration computes the end-start difference in minutes, wrapping across
// midnight so the result is always in [0, 1439].
func WrapDuration(start, end string) (int, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	diff := e - s
	if diff < 0 {
		diff += 24 * 60
	}
	return diff, nil
}
