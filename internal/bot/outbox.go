package bot

import (
	tghelpers "github.com/personal-assistant-for-students/dispatcher-service/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// teleOutbox adapts the current update's tele.Context to the dialogue
// engine's send surface.
type teleOutbox struct {
	c tele.Context
}

func (o teleOutbox) Send(text string) error {
	return tghelpers.SendText(o.c, text)
}

func (o teleOutbox) SendKeyboard(text string, markup *tele.ReplyMarkup) error {
	return tghelpers.SendMarkup(o.c, text, markup)
}

func (o teleOutbox) Edit(text string, markup *tele.ReplyMarkup) error {
	return tghelpers.EditOrSendText(o.c, text, markup)
}
