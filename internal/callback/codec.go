// Package callback defines the wire format of inline button payloads.
//
// Tokens are plain strings sent verbatim as callback data and parsed back
// after a round-trip through the client:
//
//	task_<id>                    open task details
//	status_<id>_<status>         set task status
//	cal_<ACTION>_<year>_<month>_<day>  calendar navigation and day picks
//
// Prefixes are pairwise disjoint so the router can dispatch on the first
// matching prefix without ambiguity.
package callback

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// TaskPrefix routes task detail callbacks.
	TaskPrefix = "task_"
	// StatusPrefix routes status change callbacks.
	StatusPrefix = "status_"
	// CalendarPrefix routes calendar widget callbacks.
	CalendarPrefix = "cal_"
)

// Calendar actions understood by the widget protocol.
const (
	CalendarDay    = "DAY"
	CalendarPrev   = "PREV"
	CalendarNext   = "NEXT"
	CalendarCancel = "CANCEL"
	CalendarIgnore = "IGNORE"
)

// TaskToken addresses a single task by its service identifier.
type TaskToken struct {
	TaskID int64
}

// Encode renders the token as callback data.
func (t TaskToken) Encode() string {
	return TaskPrefix + strconv.FormatInt(t.TaskID, 10)
}

// ParseTask decodes a task_<id> payload.
func ParseTask(data string) (TaskToken, error) {
	rest, ok := strings.CutPrefix(data, TaskPrefix)
	if !ok {
		return TaskToken{}, fmt.Errorf("callback: not a task token: %q", data)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return TaskToken{}, fmt.Errorf("callback: bad task id in %q: %w", data, err)
	}
	return TaskToken{TaskID: id}, nil
}

// StatusToken carries a requested status transition for a task.
// The status value is carried verbatim, including non-ASCII text.
type StatusToken struct {
	TaskID int64
	Status string
}

// Encode renders the token as callback data.
func (t StatusToken) Encode() string {
	return StatusPrefix + strconv.FormatInt(t.TaskID, 10) + "_" + t.Status
}

// ParseStatus decodes a status_<id>_<status> payload. The status part is
// everything after the second separator, so statuses may contain underscores.
func ParseStatus(data string) (StatusToken, error) {
	rest, ok := strings.CutPrefix(data, StatusPrefix)
	if !ok {
		return StatusToken{}, fmt.Errorf("callback: not a status token: %q", data)
	}
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return StatusToken{}, fmt.Errorf("callback: malformed status token: %q", data)
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return StatusToken{}, fmt.Errorf("callback: bad task id in %q: %w", data, err)
	}
	return StatusToken{TaskID: id, Status: parts[1]}, nil
}

// CalendarToken encodes a calendar widget interaction.
// Navigation and cancel actions carry zeroed date parts.
type CalendarToken struct {
	Action string
	Year   int
	Month  int
	Day    int
}

// Encode renders the token as callback data.
func (t CalendarToken) Encode() string {
	return fmt.Sprintf("%s%s_%d_%d_%d", CalendarPrefix, t.Action, t.Year, t.Month, t.Day)
}

// ParseCalendar decodes a cal_<ACTION>_<year>_<month>_<day> payload.
func ParseCalendar(data string) (CalendarToken, error) {
	rest, ok := strings.CutPrefix(data, CalendarPrefix)
	if !ok {
		return CalendarToken{}, fmt.Errorf("callback: not a calendar token: %q", data)
	}
	parts := strings.Split(rest, "_")
	if len(parts) != 4 {
		return CalendarToken{}, fmt.Errorf("callback: malformed calendar token: %q", data)
	}
	switch parts[0] {
	case CalendarDay, CalendarPrev, CalendarNext, CalendarCancel, CalendarIgnore:
	default:
		return CalendarToken{}, fmt.Errorf("callback: unknown calendar action %q", parts[0])
	}
	nums := make([]int, 3)
	for i, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return CalendarToken{}, fmt.Errorf("callback: bad calendar part %q in %q: %w", p, data, err)
		}
		nums[i] = n
	}
	return CalendarToken{Action: parts[0], Year: nums[0], Month: nums[1], Day: nums[2]}, nil
}
