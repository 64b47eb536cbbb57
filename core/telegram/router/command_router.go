package router

import (
	"time"

	tg "github.com/personal-assistant-for-students/dispatcher-service/core/telegram"
	"github.com/personal-assistant-for-students/dispatcher-service/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes prepares command handlers wrapped with shared middleware.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		name := normalizeHandlerName(cmd)
		handler := def.Handler
		wrapped := func(c tele.Context) error {
			start := time.Now()
			return handleWithSummary(c, name, start, "", "", func() error {
				return handler(c)
			})
		}
		wrapped = middleware.RecoverMiddleware(middleware.LoggerMiddleware(wrapped))
		routes = append(routes, tg.Route{Endpoint: cmd, Handler: wrapped})
	}

	wireLogInfo("complete",
		slog.Int("commands", len(reg.Commands())),
		slog.Int("callbacks", len(reg.ListCallbackPrefixes())),
	)

	return routes
}
