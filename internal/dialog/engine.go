// Package dialog implements the task creation dialogue state machine.
//
// Each owner moves through title, deadline and description stages. Events
// for one owner are serialized on a per-owner lock; unrelated owners never
// wait on each other.
package dialog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/personal-assistant-for-students/dispatcher-service/core/logger"
	"github.com/personal-assistant-for-students/dispatcher-service/core/telegram/keyboard"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/calendar"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/callback"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/drafts"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/presenter"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/taskapi"

	tele "gopkg.in/telebot.v4"
	"log/slog"
)

// Stage is the owner's position in the creation dialogue.
type Stage int

const (
	StageIdle Stage = iota
	StageAwaitTitle
	StageAwaitDeadline
	StageAwaitDescription
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAwaitTitle:
		return "await_title"
	case StageAwaitDeadline:
		return "await_deadline"
	case StageAwaitDescription:
		return "await_description"
	default:
		return "unknown"
	}
}

// CancelKeyword is the reply-keyboard caption that aborts the dialogue.
const CancelKeyword = "Отменить создание задачи"

// User-facing dialogue messages.
const (
	MsgAskTitle       = "Введите название задачи:"
	MsgAskDeadline    = "Выберите дату дедлайна:"
	MsgAskDescription = "Введите описание задачи:"
	MsgUseCalendar    = "Пожалуйста, выберите дату на календаре."
	MsgCancelled      = "Создание задачи отменено."
	MsgCreateFailed   = "Произошла ошибка при создании задачи."
)

// Outbox is the send surface of the event currently being handled.
// Implementations belong to the transport layer.
type Outbox interface {
	// Send delivers plain text to the owner.
	Send(text string) error
	// SendKeyboard delivers text with an attached keyboard.
	SendKeyboard(text string, markup *tele.ReplyMarkup) error
	// Edit rewrites the message the current callback originated from.
	Edit(text string, markup *tele.ReplyMarkup) error
}

// TaskCreator submits a completed draft to the task service.
type TaskCreator interface {
	CreateTask(ctx context.Context, ownerID int64, title, content, deadline string) (taskapi.Task, error)
}

// Engine drives the per-owner creation dialogue.
type Engine struct {
	tasks  TaskCreator
	drafts *drafts.Store
	menu   *tele.ReplyMarkup
	now    func() time.Time

	mu     sync.Mutex
	stages map[int64]Stage
	locks  map[int64]*sync.Mutex
}

// NewEngine creates an Engine backed by the given task service client.
// The menu markup, when non-nil, is reattached after the dialogue ends.
func NewEngine(tasks TaskCreator, menu *tele.ReplyMarkup) *Engine {
	return &Engine{
		tasks:  tasks,
		drafts: drafts.NewStore(),
		menu:   menu,
		now:    time.Now,
		stages: make(map[int64]Stage),
		locks:  make(map[int64]*sync.Mutex),
	}
}

func (e *Engine) menuMarkup() *tele.ReplyMarkup {
	if e.menu != nil {
		return e.menu
	}
	return keyboard.RemoveKeyboard()
}

// InProgress reports whether the owner has an active dialogue.
func (e *Engine) InProgress(ownerID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stages[ownerID] != StageIdle
}

// Start begins (or restarts) the creation dialogue for the owner.
// A prior partial draft is discarded without ceremony.
func (e *Engine) Start(ctx context.Context, ownerID int64, out Outbox) error {
	unlock := e.lockOwner(ownerID)
	defer unlock()

	e.setStage(ownerID, StageAwaitTitle)
	e.drafts.Begin(ownerID)
	e.logStage(ctx, ownerID, StageAwaitTitle, "dialog.start")

	return out.SendKeyboard(MsgAskTitle, keyboard.ReplyButtons([]string{CancelKeyword}))
}

// HandleText advances the dialogue with a plain text message.
func (e *Engine) HandleText(ctx context.Context, ownerID int64, text string, out Outbox) error {
	unlock := e.lockOwner(ownerID)
	defer unlock()

	stage := e.stage(ownerID)
	if stage == StageIdle {
		return nil
	}
	if _, err := e.drafts.Get(ownerID); errors.Is(err, drafts.ErrNoActiveDraft) {
		// Restart or duplicate delivery left the stage without a draft.
		e.reset(ctx, ownerID, "dialog.resync")
		return nil
	}

	if text == CancelKeyword {
		e.reset(ctx, ownerID, "dialog.cancel")
		return out.SendKeyboard(MsgCancelled, e.menuMarkup())
	}

	switch stage {
	case StageAwaitTitle:
		if err := e.drafts.SetTitle(ownerID, text); err != nil {
			e.reset(ctx, ownerID, "dialog.resync")
			return nil
		}
		e.setStage(ownerID, StageAwaitDeadline)
		e.logStage(ctx, ownerID, StageAwaitDeadline, "stage.advance")
		now := e.now()
		return out.SendKeyboard(MsgAskDeadline, calendar.Render(now.Year(), int(now.Month())))

	case StageAwaitDeadline:
		// Deadline comes only from the calendar; stage stays put.
		return out.Send(MsgUseCalendar)

	case StageAwaitDescription:
		if err := e.drafts.SetDescription(ownerID, text); err != nil {
			e.reset(ctx, ownerID, "dialog.resync")
			return nil
		}
		return e.submit(ctx, ownerID, out)
	}
	return nil
}

// HandleCalendar consumes a calendar widget callback. Navigation only
// re-renders the grid and never advances the stage.
func (e *Engine) HandleCalendar(ctx context.Context, ownerID int64, tok callback.CalendarToken, out Outbox) error {
	unlock := e.lockOwner(ownerID)
	defer unlock()

	if tok.Action == callback.CalendarIgnore {
		return nil
	}

	if e.stage(ownerID) != StageAwaitDeadline {
		return nil
	}
	if _, err := e.drafts.Get(ownerID); errors.Is(err, drafts.ErrNoActiveDraft) {
		e.reset(ctx, ownerID, "dialog.resync")
		return nil
	}

	switch tok.Action {
	case callback.CalendarPrev, callback.CalendarNext:
		step := 1
		if tok.Action == callback.CalendarPrev {
			step = -1
		}
		year, month := calendar.Shift(tok.Year, tok.Month, step)
		return out.Edit(MsgAskDeadline, calendar.Render(year, month))

	case callback.CalendarCancel:
		e.reset(ctx, ownerID, "dialog.cancel")
		if err := out.Edit(MsgCancelled, nil); err != nil {
			return err
		}
		return out.SendKeyboard(MsgCancelled, e.menuMarkup())

	case callback.CalendarDay:
		deadline := calendar.Date(tok)
		if err := e.drafts.SetDeadline(ownerID, deadline); err != nil {
			e.reset(ctx, ownerID, "dialog.resync")
			return nil
		}
		e.setStage(ownerID, StageAwaitDescription)
		e.logStage(ctx, ownerID, StageAwaitDescription, "stage.advance")
		if err := out.Edit("Дедлайн: "+deadline, nil); err != nil {
			return err
		}
		return out.Send(MsgAskDescription)
	}
	return nil
}

// submit sends the completed draft to the task service. The draft is
// discarded regardless of the outcome: a failed submission is never left
// retryable, the user restarts with /new.
func (e *Engine) submit(ctx context.Context, ownerID int64, out Outbox) error {
	draft, err := e.drafts.Get(ownerID)
	if err != nil || !draft.Complete() {
		e.reset(ctx, ownerID, "dialog.resync")
		return nil
	}

	task, createErr := e.tasks.CreateTask(ctx, ownerID, draft.Title, draft.Description, draft.Deadline)
	e.reset(ctx, ownerID, "dialog.submit")

	if createErr != nil {
		logger.Warn(ctx, "dialog", "create.fail",
			slog.Int64("owner_id", ownerID),
			slog.String("err", createErr.Error()),
		)
		return out.SendKeyboard(MsgCreateFailed, e.menuMarkup())
	}

	logger.Info(ctx, "dialog", "create.ok",
		slog.Int64("owner_id", ownerID),
		slog.Int64("task_id", task.ID),
	)
	return out.SendKeyboard(presenter.Created(task), e.menuMarkup())
}

func (e *Engine) lockOwner(ownerID int64) func() {
	e.mu.Lock()
	lock, ok := e.locks[ownerID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[ownerID] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (e *Engine) stage(ownerID int64) Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stages[ownerID]
}

func (e *Engine) setStage(ownerID int64, stage Stage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if stage == StageIdle {
		delete(e.stages, ownerID)
		return
	}
	e.stages[ownerID] = stage
}

func (e *Engine) reset(ctx context.Context, ownerID int64, event string) {
	e.setStage(ownerID, StageIdle)
	e.drafts.Discard(ownerID)
	logger.Debug(ctx, "dialog", event,
		slog.Int64("owner_id", ownerID),
		slog.String("stage", StageIdle.String()),
	)
}

func (e *Engine) logStage(ctx context.Context, ownerID int64, stage Stage, event string) {
	logger.Debug(ctx, "dialog", event,
		slog.Int64("owner_id", ownerID),
		slog.String("stage", stage.String()),
	)
}
