package router

import (
	"time"

	"github.com/personal-assistant-for-students/dispatcher-service/core/logger"
	tg "github.com/personal-assistant-for-students/dispatcher-service/core/telegram"
	"github.com/personal-assistant-for-students/dispatcher-service/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callbacks through the registry.
// The callback is acknowledged before dispatch so the client spinner clears
// even when the handler fails.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		cb := c.Callback()
		if cb == nil {
			return nil
		}

		_ = c.Respond()

		data := callbackData(cb)
		prefix, cbHandler, ok := reg.MatchCallback(data)
		if !ok || cbHandler == nil {
			fallback := reg.CallbackNotFound()
			if fallback == nil {
				fallback = opts.NotFound
			}
			extras := []slog.Attr{
				slog.String("cb_key", logger.SanitizeLimit(data, 64)),
				slog.String("reason", "not_found"),
			}
			return handleWithSummary(c, "callback.unknown", start, "", "", func() error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			}, extras...)
		}

		name := "callback." + normalizeHandlerName(prefix)
		extras := []slog.Attr{slog.String("cb_key", prefix)}
		return handleWithSummary(c, name, start, "", "", func() error {
			return cbHandler(c)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
