package calendar

import (
	"strings"
	"testing"

	"github.com/personal-assistant-for-students/dispatcher-service/internal/callback"
)

func TestRenderGridShape(t *testing.T) {
	markup := Render(2026, 9)
	rows := markup.InlineKeyboard
	if len(rows) < 4 {
		t.Fatalf("grid has %d rows", len(rows))
	}

	if got := rows[0][0].Text; !strings.Contains(got, "Сентябрь") || !strings.Contains(got, "2026") {
		t.Errorf("header = %q", got)
	}
	if len(rows[1]) != 7 || rows[1][0].Text != "Пн" || rows[1][6].Text != "Вс" {
		t.Errorf("weekday row = %+v", rows[1])
	}
	last := rows[len(rows)-1]
	if len(last) != 3 || last[1].Text != CancelLabel {
		t.Errorf("nav row = %+v", last)
	}
}

func TestRenderDayTokens(t *testing.T) {
	markup := Render(2026, 9)

	var dayTokens []string
	for _, row := range markup.InlineKeyboard[2 : len(markup.InlineKeyboard)-1] {
		if len(row) != 7 {
			t.Fatalf("day row width = %d", len(row))
		}
		for _, btn := range row {
			tok, err := callback.ParseCalendar(btn.Data)
			if err != nil {
				t.Fatalf("ParseCalendar(%q): %v", btn.Data, err)
			}
			if tok.Action == callback.CalendarDay {
				dayTokens = append(dayTokens, btn.Data)
			}
		}
	}
	// September has 30 days.
	if len(dayTokens) != 30 {
		t.Fatalf("got %d day tokens, want 30", len(dayTokens))
	}
	if dayTokens[0] != "cal_DAY_2026_9_1" {
		t.Fatalf("first day token = %q", dayTokens[0])
	}
	if dayTokens[29] != "cal_DAY_2026_9_30" {
		t.Fatalf("last day token = %q", dayTokens[29])
	}
}

func TestRenderNavTokens(t *testing.T) {
	markup := Render(2026, 9)
	nav := markup.InlineKeyboard[len(markup.InlineKeyboard)-1]

	prev, err := callback.ParseCalendar(nav[0].Data)
	if err != nil || prev.Action != callback.CalendarPrev || prev.Year != 2026 || prev.Month != 9 {
		t.Fatalf("prev = %+v, err = %v", prev, err)
	}
	cancel, err := callback.ParseCalendar(nav[1].Data)
	if err != nil || cancel.Action != callback.CalendarCancel {
		t.Fatalf("cancel = %+v, err = %v", cancel, err)
	}
	next, err := callback.ParseCalendar(nav[2].Data)
	if err != nil || next.Action != callback.CalendarNext {
		t.Fatalf("next = %+v, err = %v", next, err)
	}
}

func TestShift(t *testing.T) {
	cases := []struct {
		year, month, step   int
		wantYear, wantMonth int
	}{
		{2026, 9, 1, 2026, 10},
		{2026, 9, -1, 2026, 8},
		{2026, 12, 1, 2027, 1},
		{2026, 1, -1, 2025, 12},
	}
	for _, tc := range cases {
		y, m := Shift(tc.year, tc.month, tc.step)
		if y != tc.wantYear || m != tc.wantMonth {
			t.Errorf("Shift(%d, %d, %d) = %d, %d; want %d, %d",
				tc.year, tc.month, tc.step, y, m, tc.wantYear, tc.wantMonth)
		}
	}
}

func TestDateFormatsWithPadding(t *testing.T) {
	got := Date(callback.CalendarToken{Action: callback.CalendarDay, Year: 2026, Month: 9, Day: 5})
	if got != "2026-09-05" {
		t.Fatalf("Date = %q, want 2026-09-05", got)
	}
}
