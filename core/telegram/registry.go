package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/personal-assistant-for-students/dispatcher-service/core/logger"
	"github.com/personal-assistant-for-students/dispatcher-service/core/telegram/commands"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

func wireLog(level slog.Level, event string, attrs ...slog.Attr) {
	if logger.TWire == nil {
		return
	}
	logger.TWire.LogAttrs(context.Background(), level, event, attrs...)
}

type prefixRoute struct {
	prefix  string
	handler tele.HandlerFunc
}

// Registry holds bot commands and prefix-keyed callback handlers.
//
// Callback data is routed by matching the raw payload against registered
// prefixes. Prefixes are validated to be pairwise disjoint at registration
// time, so no payload can ever match more than one handler.
type Registry struct {
	commands         map[string]commands.Command
	prefixes         []prefixRoute
	prefixesMu       sync.RWMutex
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry creates an empty Registry with default fallbacks.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]commands.Command),
		callbackNotFound: func(c tele.Context) error {
			_ = c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
			return nil
		},
	}
}

// RegisterCommand adds a new command.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	if r == nil || name == "" || cmd.Handler == nil || cmd.Description == "" {
		wireLog(slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "invalid"),
		)
		return
	}
	if name[0] != '/' {
		wireLog(slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", "no_slash_prefix"),
		)
		return
	}
	if _, exists := r.commands[name]; exists {
		wireLog(slog.LevelWarn, "register.command.duplicate",
			slog.String("name", name),
		)
		return
	}
	r.commands[name] = cmd
}

// ListCommands returns a slice of tele.Command, optionally filtering out hidden commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	var list []tele.Command
	for cmd, meta := range r.commands {
		if visibleOnly && meta.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: cmd, Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand searches for a command by name or its aliases and returns the canonical key with metadata if found.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if alias == name || "/"+alias == name {
				return key, cmd, true
			}
		}
	}
	return "", commands.Command{}, false
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// RegisterCallbackPrefix adds a callback handler for payloads starting with prefix.
// Registration fails if the prefix collides with an already registered one,
// i.e. either is a prefix of the other.
func (r *Registry) RegisterCallbackPrefix(prefix string, handler tele.HandlerFunc) error {
	if r == nil || prefix == "" || handler == nil {
		wireLog(slog.LevelWarn, "register.callback.skip",
			slog.String("prefix", prefix),
			slog.Bool("handler_nil", handler == nil),
		)
		return errors.New("invalid callback registration")
	}
	r.prefixesMu.Lock()
	defer r.prefixesMu.Unlock()
	for _, existing := range r.prefixes {
		if strings.HasPrefix(prefix, existing.prefix) || strings.HasPrefix(existing.prefix, prefix) {
			wireLog(slog.LevelWarn, "register.callback.collision",
				slog.String("prefix", prefix),
				slog.String("existing", existing.prefix),
			)
			return fmt.Errorf("callback prefix %q collides with %q", prefix, existing.prefix)
		}
	}
	r.prefixes = append(r.prefixes, prefixRoute{prefix: prefix, handler: handler})
	return nil
}

// MatchCallback resolves the handler whose prefix matches the raw payload.
// Disjointness of prefixes guarantees at most one match.
func (r *Registry) MatchCallback(data string) (string, tele.HandlerFunc, bool) {
	r.prefixesMu.RLock()
	defer r.prefixesMu.RUnlock()
	for _, route := range r.prefixes {
		if strings.HasPrefix(data, route.prefix) {
			return route.prefix, route.handler, true
		}
	}
	return "", nil, false
}

// ListCallbackPrefixes returns sorted prefixes (for diagnostics).
func (r *Registry) ListCallbackPrefixes() []string {
	r.prefixesMu.RLock()
	defer r.prefixesMu.RUnlock()
	names := make([]string, 0, len(r.prefixes))
	for _, route := range r.prefixes {
		names = append(names, route.prefix)
	}
	sort.Strings(names)
	return names
}

// SetCallbackNotFound replaces the fallback handler for unknown callbacks.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.callbackNotFound = h
	}
}

// CallbackNotFound returns the current fallback callback handler.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	return r.callbackNotFound
}

// SetTextFallback sets a global fallback handler for unknown text messages.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// SetupCommands sets the Telegram bot commands shown in the command menu.
func SetupCommands(bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		wireLog(slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
	}
}
