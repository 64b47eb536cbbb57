// Package presenter renders task status glyphs and list ordering for display.
package presenter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/personal-assistant-for-students/dispatcher-service/internal/taskapi"
)

// DeadlineLayout is the exact wire format of task deadlines.
const DeadlineLayout = "2006-01-02"

// FormatError reports a task whose deadline does not parse as YYYY-MM-DD.
type FormatError struct {
	TaskID   int64
	Deadline string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("presenter: task %d has invalid deadline %q", e.TaskID, e.Deadline)
}

// Code returns a stable machine-readable error code for handler summaries.
func (e *FormatError) Code() string { return "INVALID_DEADLINE" }

// StatusGlyph maps a primary status to its display glyph.
// Done and unknown statuses render without a glyph.
func StatusGlyph(status string) string {
	switch status {
	case taskapi.StatusToDo:
		return "🔘"
	case taskapi.StatusDoing:
		return "🟢"
	default:
		return ""
	}
}

// HeatGlyph maps the additional "heat" status to its display glyph.
// Unknown values get the cold fallback, never an error.
func HeatGlyph(status string) string {
	switch status {
	case "Сгорел":
		return "💀"
	case "Адище":
		return "🔥"
	case "Горит":
		return "🤬"
	case "Теплый":
		return "🥵"
	default:
		return "🥶"
	}
}

// SortByDeadline orders tasks by deadline ascending with a stable id
// tie-break. The input slice is not modified. A task with an unparseable
// deadline aborts the render with a *FormatError.
func SortByDeadline(tasks []taskapi.Task) ([]taskapi.Task, error) {
	type keyed struct {
		task taskapi.Task
		when time.Time
	}
	items := make([]keyed, 0, len(tasks))
	for _, t := range tasks {
		when, err := time.Parse(DeadlineLayout, t.Deadline)
		if err != nil {
			return nil, &FormatError{TaskID: t.ID, Deadline: t.Deadline}
		}
		items = append(items, keyed{task: t, when: when})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].when.Equal(items[j].when) {
			return items[i].when.Before(items[j].when)
		}
		return items[i].task.ID < items[j].task.ID
	})
	out := make([]taskapi.Task, len(items))
	for i, it := range items {
		out[i] = it.task
	}
	return out, nil
}

// ListLine renders one task as a selectable list entry label.
func ListLine(t taskapi.Task) string {
	line := fmt.Sprintf("%s %s %s - %s",
		StatusGlyph(t.Status), HeatGlyph(t.AdditionalStatus), t.Title, t.Status)
	return strings.TrimSpace(line)
}

// Detail renders the full task card shown after selecting it from the list.
func Detail(t taskapi.Task) string {
	return fmt.Sprintf(
		"Информация о задаче:\nНазвание: %s\nДедлайн: %s\nЧто: %s\nСтатус: %s\nДоп. статус: %s",
		t.Title, t.Deadline, t.Content, t.Status, t.AdditionalStatus)
}

// Created renders the confirmation sent after a successful submission.
func Created(t taskapi.Task) string {
	return fmt.Sprintf(
		"Задача создана:\nНазвание: %s\nДедлайн: %s\nОписание: %s",
		t.Title, t.Deadline, t.Content)
}

// Updated renders the confirmation sent after a status change.
func Updated(t taskapi.Task) string {
	return fmt.Sprintf(
		"Задача обновлена:\nНазвание: %s\nДедлайн: %s\nНовый статус: %s",
		t.Title, t.Deadline, t.Status)
}
