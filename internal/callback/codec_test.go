package callback

import "testing"

func TestTaskTokenRoundTrip(t *testing.T) {
	tok := TaskToken{TaskID: 17}
	data := tok.Encode()
	if data != "task_17" {
		t.Fatalf("Encode() = %q, want %q", data, "task_17")
	}
	got, err := ParseTask(data)
	if err != nil {
		t.Fatalf("ParseTask(%q): %v", data, err)
	}
	if got != tok {
		t.Fatalf("ParseTask(%q) = %+v, want %+v", data, got, tok)
	}
}

func TestParseTaskRejectsGarbage(t *testing.T) {
	for _, data := range []string{"task_", "task_abc", "status_17_Делаю", "task17"} {
		if _, err := ParseTask(data); err == nil {
			t.Errorf("ParseTask(%q): expected error", data)
		}
	}
}

func TestStatusTokenRoundTrip(t *testing.T) {
	tok := StatusToken{TaskID: 42, Status: "Выполнено"}
	data := tok.Encode()
	if data != "status_42_Выполнено" {
		t.Fatalf("Encode() = %q", data)
	}
	got, err := ParseStatus(data)
	if err != nil {
		t.Fatalf("ParseStatus(%q): %v", data, err)
	}
	if got != tok {
		t.Fatalf("ParseStatus(%q) = %+v, want %+v", data, got, tok)
	}
}

func TestParseStatusKeepsUnderscoresInStatus(t *testing.T) {
	got, err := ParseStatus("status_5_in_progress")
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if got.TaskID != 5 || got.Status != "in_progress" {
		t.Fatalf("got %+v", got)
	}
}

func TestParseStatusRejectsMalformed(t *testing.T) {
	for _, data := range []string{"status_", "status_5", "status_5_", "status_x_Делаю", "task_5"} {
		if _, err := ParseStatus(data); err == nil {
			t.Errorf("ParseStatus(%q): expected error", data)
		}
	}
}

func TestCalendarTokenRoundTrip(t *testing.T) {
	cases := []CalendarToken{
		{Action: CalendarDay, Year: 2026, Month: 9, Day: 15},
		{Action: CalendarPrev, Year: 2026, Month: 1, Day: 0},
		{Action: CalendarNext, Year: 2025, Month: 12, Day: 0},
		{Action: CalendarCancel},
		{Action: CalendarIgnore},
	}
	for _, tok := range cases {
		data := tok.Encode()
		got, err := ParseCalendar(data)
		if err != nil {
			t.Fatalf("ParseCalendar(%q): %v", data, err)
		}
		if got != tok {
			t.Fatalf("ParseCalendar(%q) = %+v, want %+v", data, got, tok)
		}
	}
}

func TestCalendarDayEncoding(t *testing.T) {
	data := CalendarToken{Action: CalendarDay, Year: 2026, Month: 9, Day: 1}.Encode()
	if data != "cal_DAY_2026_9_1" {
		t.Fatalf("Encode() = %q", data)
	}
}

func TestParseCalendarRejectsMalformed(t *testing.T) {
	for _, data := range []string{
		"cal_DAY_2026_9",
		"cal_DAY_2026_9_1_7",
		"cal_JUMP_2026_9_1",
		"cal_DAY_x_9_1",
		"task_5",
	} {
		if _, err := ParseCalendar(data); err == nil {
			t.Errorf("ParseCalendar(%q): expected error", data)
		}
	}
}

func TestPrefixesAreDisjoint(t *testing.T) {
	prefixes := []string{TaskPrefix, StatusPrefix, CalendarPrefix}
	for i, a := range prefixes {
		for j, b := range prefixes {
			if i == j {
				continue
			}
			if len(a) <= len(b) && b[:len(a)] == a {
				t.Errorf("prefix %q shadows %q", a, b)
			}
		}
	}
}
