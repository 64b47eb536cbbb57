package keyboard

import tele "gopkg.in/telebot.v4"

// RawBtn describes an inline button whose callback data is sent verbatim.
// Button data bypasses telebot's unique/payload encoding so the bytes the
// client sends back match the token that was rendered.
type RawBtn struct {
	Text string
	Data string
}

// RemoveKeyboard returns a markup that hides the reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a reply keyboard from rows of text.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	var keyboard []tele.Row
	for _, row := range rows {
		var buttons []tele.Btn
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// InlineRaw builds an inline keyboard where each button is placed on its own row.
func InlineRaw(buttons []RawBtn) *tele.ReplyMarkup {
	rows := make([][]RawBtn, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []RawBtn{b})
	}
	return InlineRawRows(rows...)
}

// InlineRawRows builds an inline keyboard from rows of RawBtn.
func InlineRawRows(rows ...[]RawBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = tele.InlineButton{Text: btn.Text, Data: btn.Data}
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}

// ChunkRaw splits a flat list of RawBtn into rows with up to n buttons per row.
func ChunkRaw(buttons []RawBtn, n int) [][]RawBtn {
	if n <= 1 {
		out := make([][]RawBtn, 0, len(buttons))
		for _, b := range buttons {
			out = append(out, []RawBtn{b})
		}
		return out
	}
	var rows [][]RawBtn
	for i := 0; i < len(buttons); i += n {
		end := i + n
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return rows
}
