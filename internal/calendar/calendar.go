// Package calendar renders the inline month-grid date picker and its
// callback protocol. Navigation callbacks re-render the grid in place and
// never carry a date; only DAY callbacks do.
package calendar

import (
	"fmt"
	"time"

	"github.com/personal-assistant-for-students/dispatcher-service/core/telegram/keyboard"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/callback"

	tele "gopkg.in/telebot.v4"
)

var monthNames = [...]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

var weekdayNames = [...]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

// CancelLabel is the caption of the picker's cancel button.
const CancelLabel = "Отмена"

// Render builds the month grid for the given year and month (1-12).
func Render(year, month int) *tele.ReplyMarkup {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	year, month = first.Year(), int(first.Month())

	ignore := callback.CalendarToken{Action: callback.CalendarIgnore}.Encode()

	header := []keyboard.RawBtn{{
		Text: fmt.Sprintf("%s %d", monthNames[month-1], year),
		Data: ignore,
	}}

	week := make([]keyboard.RawBtn, len(weekdayNames))
	for i, name := range weekdayNames {
		week[i] = keyboard.RawBtn{Text: name, Data: ignore}
	}

	rows := [][]keyboard.RawBtn{header, week}

	// Monday-first offset of the month's first day.
	offset := (int(first.Weekday()) + 6) % 7
	daysInMonth := first.AddDate(0, 1, -1).Day()

	row := make([]keyboard.RawBtn, 0, 7)
	for i := 0; i < offset; i++ {
		row = append(row, keyboard.RawBtn{Text: " ", Data: ignore})
	}
	for day := 1; day <= daysInMonth; day++ {
		row = append(row, keyboard.RawBtn{
			Text: fmt.Sprintf("%d", day),
			Data: callback.CalendarToken{Action: callback.CalendarDay, Year: year, Month: month, Day: day}.Encode(),
		})
		if len(row) == 7 {
			rows = append(rows, row)
			row = make([]keyboard.RawBtn, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, keyboard.RawBtn{Text: " ", Data: ignore})
		}
		rows = append(rows, row)
	}

	rows = append(rows, []keyboard.RawBtn{
		{Text: "<", Data: callback.CalendarToken{Action: callback.CalendarPrev, Year: year, Month: month}.Encode()},
		{Text: CancelLabel, Data: callback.CalendarToken{Action: callback.CalendarCancel}.Encode()},
		{Text: ">", Data: callback.CalendarToken{Action: callback.CalendarNext, Year: year, Month: month}.Encode()},
	})

	return keyboard.InlineRawRows(rows...)
}

// Shift returns the year and month of the grid one step before or after
// the given one, for PREV and NEXT navigation.
func Shift(year, month, step int) (int, int) {
	t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, step, 0)
	return t.Year(), int(t.Month())
}

// Date converts a DAY token into its wire-format deadline string.
func Date(tok callback.CalendarToken) string {
	return fmt.Sprintf("%04d-%02d-%02d", tok.Year, tok.Month, tok.Day)
}
