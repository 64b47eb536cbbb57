package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"owner_id",
	"chat_type",
	"handler",
	"stage",
	"cb_key",
	"task_id",
	"status_to",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"count",
	"payload",
	"deadline",
	"lang",
	"username",
	"mode",
	"listen",
	"public_url",
	"http_code",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
	"attempts",
	"backoff_ms",
}

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

type structuredHandler struct {
	cfg    handlerConfig
	attrs  []slog.Attr
	groups []string
}

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = append([]string(nil), defaultKeyOrder...)
	}
	return &structuredHandler{cfg: cfg}
}

// Enabled reports whether the handler allows processing the provided level.
func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.cfg.level != nil {
		min = h.cfg.level.Level()
	}
	return level >= min
}

// Handle formats the slog.Record and writes it using the configured writer.
func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return fmt.Errorf("logger: writer not initialized")
	}

	fields := make(map[string]any, 16)
	isJSON := h.cfg.format == formatJSON
	ts := r.Time.UTC()
	if r.Time.IsZero() {
		ts = time.Now().UTC()
	}
	fields["ts"] = ts.Truncate(time.Millisecond).Format(timeFormatMillis)
	fields["level"] = strings.ToUpper(r.Level.String())
	if isJSON {
		fields["ts_unix_nano"] = ts.UnixNano()
	}

	for _, a := range h.attrs {
		collectAttr(fields, h.groups, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collectAttr(fields, h.groups, a)
		return true
	})

	if r.Message != "" {
		if _, ok := fields["event"]; !ok {
			fields["event"] = r.Message
		}
	}

	enrichFromContext(ctx, fields)

	if rid, ok := fields["rid"].(string); ok && rid != "" {
		compact := CompactRID(rid)
		if compact != rid {
			fields["rid"] = compact
			if isJSON {
				fields["rid_full"] = rid
			}
		}
	}

	keys := orderKeys(fields, h.cfg.keyOrder)

	var line []byte
	if isJSON {
		line = renderJSON(fields, keys)
	} else {
		line = renderKV(fields, keys)
	}
	line = append(line, '\n')
	return h.cfg.writer.Write(line)
}

// WithAttrs returns a new handler with the provided attributes preapplied.
func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup returns a new handler scoped to the provided group name.
func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func collectAttr(fields map[string]any, groups []string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	val := a.Value.Resolve()
	if val.Kind() == slog.KindGroup {
		nested := append(groups, a.Key)
		for _, ga := range val.Group() {
			collectAttr(fields, nested, ga)
		}
		return
	}
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	switch val.Kind() {
	case slog.KindDuration:
		fields[key] = val.Duration().String()
	case slog.KindTime:
		fields[key] = val.Time().UTC().Format(timeFormatMillis)
	default:
		fields[key] = val.Any()
	}
}

func enrichFromContext(ctx context.Context, fields map[string]any) {
	if ctx == nil {
		return
	}
	if _, ok := fields["rid"]; !ok {
		if rid := RIDFrom(ctx); rid != "" {
			fields["rid"] = rid
		}
	}
	if _, ok := fields["update_id"]; !ok {
		if id := UpdateIDFrom(ctx); id != 0 {
			fields["update_id"] = id
		}
	}
	if _, ok := fields["user_id"]; !ok {
		if id := UserIDFrom(ctx); id != 0 {
			fields["user_id"] = id
		}
	}
	if _, ok := fields["chat_id"]; !ok {
		if id := ChatIDFrom(ctx); id != 0 {
			fields["chat_id"] = id
		}
	}
	if _, ok := fields["handler"]; !ok {
		if name := HandlerFrom(ctx); name != "" {
			fields["handler"] = name
		}
	}
}

func orderKeys(fields map[string]any, order []string) []string {
	keys := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, k := range order {
		if _, ok := fields[k]; ok {
			keys = append(keys, k)
			seen[k] = struct{}{}
		}
	}
	rest := make([]string, 0, len(fields))
	for k := range fields {
		if _, ok := seen[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func renderKV(fields map[string]any, keys []string) []byte {
	var b strings.Builder
	first := true
	for _, k := range keys {
		if k == "rid_full" || k == "ts_unix_nano" {
			continue
		}
		if !first {
			b.WriteByte(' ')
		}
		first = false
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kvValue(fields[k]))
	}
	return []byte(b.String())
}

func kvValue(v any) string {
	switch t := v.(type) {
	case string:
		if t == "" || strings.ContainsAny(t, " \t\"=") {
			return strconv.Quote(t)
		}
		return t
	case error:
		return strconv.Quote(t.Error())
	default:
		return fmt.Sprint(v)
	}
}

func renderJSON(fields map[string]any, keys []string) []byte {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for _, k := range keys {
		raw, err := json.Marshal(normalizeJSONValue(fields[k]))
		if err != nil {
			raw, _ = json.Marshal(fmt.Sprint(fields[k]))
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		keyRaw, _ := json.Marshal(k)
		b.Write(keyRaw)
		b.WriteByte(':')
		b.Write(raw)
	}
	b.WriteByte('}')
	return []byte(b.String())
}

func normalizeJSONValue(v any) any {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return v
}
