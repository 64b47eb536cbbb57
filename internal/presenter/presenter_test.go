package presenter

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/personal-assistant-for-students/dispatcher-service/internal/taskapi"
)

func TestStatusGlyph(t *testing.T) {
	cases := []struct {
		status string
		want   string
	}{
		{taskapi.StatusToDo, "🔘"},
		{taskapi.StatusDoing, "🟢"},
		{taskapi.StatusDone, ""},
		{"что-то", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := StatusGlyph(tc.status); got != tc.want {
			t.Errorf("StatusGlyph(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestHeatGlyph(t *testing.T) {
	cases := []struct {
		status string
		want   string
	}{
		{"Сгорел", "💀"},
		{"Адище", "🔥"},
		{"Горит", "🤬"},
		{"Теплый", "🥵"},
		{"", "🥶"},
		{"неизвестно", "🥶"},
	}
	for _, tc := range cases {
		if got := HeatGlyph(tc.status); got != tc.want {
			t.Errorf("HeatGlyph(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestSortByDeadlineOrdersAscending(t *testing.T) {
	tasks := []taskapi.Task{
		{ID: 1, Deadline: "2024-01-05"},
		{ID: 2, Deadline: "2024-01-01"},
		{ID: 3, Deadline: "2024-01-10"},
	}
	sorted, err := SortByDeadline(tasks)
	if err != nil {
		t.Fatalf("SortByDeadline: %v", err)
	}
	var got []string
	for _, task := range sorted {
		got = append(got, task.Deadline)
	}
	want := []string{"2024-01-01", "2024-01-05", "2024-01-10"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestSortByDeadlineStableAndIdempotent(t *testing.T) {
	tasks := []taskapi.Task{
		{ID: 7, Deadline: "2024-02-01"},
		{ID: 3, Deadline: "2024-02-01"},
		{ID: 5, Deadline: "2024-01-15"},
	}
	once, err := SortByDeadline(tasks)
	if err != nil {
		t.Fatalf("SortByDeadline: %v", err)
	}
	twice, err := SortByDeadline(once)
	if err != nil {
		t.Fatalf("SortByDeadline (second pass): %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("not idempotent: %v vs %v", once, twice)
	}
	if once[0].ID != 5 || once[1].ID != 3 || once[2].ID != 7 {
		t.Fatalf("tie-break order = %v", once)
	}
}

func TestSortByDeadlineDoesNotMutateInput(t *testing.T) {
	tasks := []taskapi.Task{
		{ID: 1, Deadline: "2024-01-05"},
		{ID: 2, Deadline: "2024-01-01"},
	}
	if _, err := SortByDeadline(tasks); err != nil {
		t.Fatalf("SortByDeadline: %v", err)
	}
	if tasks[0].ID != 1 {
		t.Fatal("input slice was reordered")
	}
}

func TestSortByDeadlineInvalidDeadline(t *testing.T) {
	tasks := []taskapi.Task{
		{ID: 1, Deadline: "2024-01-05"},
		{ID: 2, Deadline: "05.01.2024"},
	}
	_, err := SortByDeadline(tasks)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *FormatError", err)
	}
	if fe.TaskID != 2 {
		t.Fatalf("TaskID = %d, want 2", fe.TaskID)
	}
	if fe.Code() != "INVALID_DEADLINE" {
		t.Fatalf("Code() = %q", fe.Code())
	}
}

func TestListLine(t *testing.T) {
	line := ListLine(taskapi.Task{
		ID: 1, Title: "сдать отчет", Deadline: "2026-09-15",
		Status: taskapi.StatusDoing, AdditionalStatus: "Горит",
	})
	if line != "🟢 🤬 сдать отчет - Делаю" {
		t.Fatalf("ListLine = %q", line)
	}
}

func TestListLineDoneHasNoLeadingSpace(t *testing.T) {
	line := ListLine(taskapi.Task{ID: 1, Title: "готово", Status: taskapi.StatusDone})
	if strings.HasPrefix(line, " ") {
		t.Fatalf("ListLine = %q has a leading space", line)
	}
}

func TestDetailContainsAllFields(t *testing.T) {
	text := Detail(taskapi.Task{
		ID: 5, Title: "сдать отчет", Content: "к понедельнику",
		Deadline: "2026-09-15", Status: taskapi.StatusToDo, AdditionalStatus: "Теплый",
	})
	for _, part := range []string{"сдать отчет", "к понедельнику", "2026-09-15", taskapi.StatusToDo, "Теплый"} {
		if !strings.Contains(text, part) {
			t.Errorf("Detail missing %q in %q", part, text)
		}
	}
}

func TestCreatedAndUpdatedSummaries(t *testing.T) {
	task := taskapi.Task{Title: "сдать отчет", Content: "к понедельнику", Deadline: "2026-09-15", Status: taskapi.StatusDoing}

	created := Created(task)
	for _, part := range []string{"Задача создана", "сдать отчет", "2026-09-15", "к понедельнику"} {
		if !strings.Contains(created, part) {
			t.Errorf("Created missing %q in %q", part, created)
		}
	}

	updated := Updated(task)
	for _, part := range []string{"Задача обновлена", "сдать отчет", taskapi.StatusDoing} {
		if !strings.Contains(updated, part) {
			t.Errorf("Updated missing %q in %q", part, updated)
		}
	}
}
