package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/personal-assistant-for-students/dispatcher-service/core/logger"
	tghelpers "github.com/personal-assistant-for-students/dispatcher-service/core/telegram/helpers"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/callback"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/profile"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

const (
	msgGreeting         = "Привет %s! Я ваш персональный ассистент, что будем делать сегодня?"
	msgJoka             = "Здесь будет сгенерирован лучший анекдот для %s"
	msgTaskListHeader   = "Вот отсортированный по ближайшему дедлайну список ваших задач:"
	msgNoTasks          = "Делать было нечего дело было вечером, список задач пуст короче"
	msgListFailed       = "Не удалось получить задачи."
	msgTaskFetchFailed  = "Ошибка при получении задачи."
	msgUpdateOK         = "Задача успешно обновлена."
	msgUpdateFailed     = "Ошибка при обновлении статуса задачи."
	msgRefetchFailed    = "Ошибка при получении обновленной задачи."
	msgUpdateUsage      = "Формат: /update <номер задачи> статус на <статус>"
	msgUnknownText      = "Не понимаю. Выберите команду на клавиатуре или в меню."
	msgUnsupportedToken = "Неподдерживаемое действие."
)

// dialogAdapter bridges the dialogue engine into the text router.
type dialogAdapter struct {
	app *App
}

func (d dialogAdapter) InProgress(ownerID int64) bool {
	return d.app.engine.InProgress(ownerID)
}

func (d dialogAdapter) HandleText(c tele.Context) error {
	if c.Sender() == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	return d.app.engine.HandleText(ctx, c.Sender().ID, c.Text(), teleOutbox{c: c})
}

func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	if user == nil {
		return nil
	}
	a.rememberCommand(ctx, user, "/start")
	return tghelpers.SendMarkup(c, fmt.Sprintf(msgGreeting, fullName(user)), a.menu)
}

func (a *App) handleJoka(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	if user == nil {
		return nil
	}
	a.rememberCommand(ctx, user, "/joka")
	// Joke generation is a stub for now.
	return tghelpers.SendText(c, fmt.Sprintf(msgJoka, fullName(user)))
}

func (a *App) handleNew(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	if user == nil {
		return nil
	}
	a.rememberCommand(ctx, user, "/new")
	return a.engine.Start(ctx, user.ID, teleOutbox{c: c})
}

func (a *App) handleTasks(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	if user == nil {
		return nil
	}
	a.rememberCommand(ctx, user, "/tasks")
	return a.listTasksFlow(ctx, user.ID, teleOutbox{c: c})
}

func (a *App) handleUpdate(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	if user == nil {
		return nil
	}
	a.rememberCommand(ctx, user, "/update")
	return a.manualUpdateFlow(ctx, user.ID, c.Text(), teleOutbox{c: c})
}

func (a *App) handleUnknownText(c tele.Context) error {
	return tghelpers.SendMarkup(c, msgUnknownText, a.menu)
}

func (a *App) handleTaskCallback(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	cb := c.Callback()
	if user == nil || cb == nil {
		return nil
	}

	tok, err := callback.ParseTask(rawData(cb))
	if err != nil {
		a.logMalformed(ctx, callback.TaskPrefix, err)
		return tghelpers.SendText(c, msgUnsupportedToken)
	}
	return a.taskDetailFlow(ctx, user.ID, tok.TaskID, teleOutbox{c: c})
}

func (a *App) handleStatusCallback(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	cb := c.Callback()
	if user == nil || cb == nil {
		return nil
	}

	tok, err := callback.ParseStatus(rawData(cb))
	if err != nil {
		a.logMalformed(ctx, callback.StatusPrefix, err)
		return tghelpers.SendText(c, msgUnsupportedToken)
	}
	return a.statusUpdateFlow(ctx, user.ID, tok, teleOutbox{c: c})
}

func (a *App) handleCalendarCallback(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	cb := c.Callback()
	if user == nil || cb == nil {
		return nil
	}

	tok, err := callback.ParseCalendar(rawData(cb))
	if err != nil {
		a.logMalformed(ctx, callback.CalendarPrefix, err)
		return nil
	}
	return a.engine.HandleCalendar(ctx, user.ID, tok, teleOutbox{c: c})
}

func (a *App) rememberCommand(ctx context.Context, user *tele.User, command string) {
	a.profiles.Remember(ctx, user.ID, profile.Fields{
		Username:    user.Username,
		LastCommand: command,
		Locale:      user.LanguageCode,
	})
}

func (a *App) logMalformed(ctx context.Context, prefix string, err error) {
	logger.Warn(ctx, "tg", "callback.malformed",
		slog.String("cb_key", prefix),
		slog.String("err", err.Error()),
	)
}

func fullName(user *tele.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Username
	}
	return name
}

func rawData(cb *tele.Callback) string {
	return strings.TrimPrefix(cb.Data, "\\f")
}
