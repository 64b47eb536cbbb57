package router

import (
	"time"

	tg "github.com/personal-assistant-for-students/dispatcher-service/core/telegram"
	"github.com/personal-assistant-for-students/dispatcher-service/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Dialog is the minimal interface the text router needs from a dialogue engine.
type Dialog interface {
	InProgress(ownerID int64) bool
	HandleText(c tele.Context) error
}

// TextOptions controls fallback behaviour for text and attachment updates.
type TextOptions struct {
	UnknownText       tele.HandlerFunc
	UnknownAttachment tele.HandlerFunc
}

// TextRoutes builds handlers for plain text and attachment routing.
// Text from a user with an active dialogue goes to the engine; otherwise
// it is resolved as a command or passed to the fallback.
func TextRoutes(dlg Dialog, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if dlg != nil && c.Sender() != nil && dlg.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "dialog", start, "", "", func() error {
				return dlg.HandleText(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	attachmentHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.UnknownAttachment != nil {
			return handleWithSummary(c, "unexpected_attachment", start, "", "", func() error {
				return opts.UnknownAttachment(c)
			})
		}
		logHandlerSummary(c, "unexpected_attachment", start, "skip", "ok", nil)
		return nil
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(handler)},
		{Endpoint: tele.OnDocument, Handler: wrap(attachmentHandler)},
		{Endpoint: tele.OnPhoto, Handler: wrap(attachmentHandler)},
	}
}
