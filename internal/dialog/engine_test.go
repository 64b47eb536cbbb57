package dialog

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/personal-assistant-for-students/dispatcher-service/internal/callback"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/taskapi"

	tele "gopkg.in/telebot.v4"
)

type sentMessage struct {
	text   string
	markup *tele.ReplyMarkup
	edited bool
}

type fakeOutbox struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeOutbox) Send(text string) error {
	return f.record(sentMessage{text: text})
}

func (f *fakeOutbox) SendKeyboard(text string, markup *tele.ReplyMarkup) error {
	return f.record(sentMessage{text: text, markup: markup})
}

func (f *fakeOutbox) Edit(text string, markup *tele.ReplyMarkup) error {
	return f.record(sentMessage{text: text, markup: markup, edited: true})
}

func (f *fakeOutbox) record(m sentMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeOutbox) last(t *testing.T) sentMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	return f.sent[len(f.sent)-1]
}

type createCall struct {
	ownerID                  int64
	title, content, deadline string
}

type fakeCreator struct {
	mu    sync.Mutex
	calls []createCall
	fail  error
	delay time.Duration
}

func (f *fakeCreator) CreateTask(ctx context.Context, ownerID int64, title, content, deadline string) (taskapi.Task, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.calls = append(f.calls, createCall{ownerID: ownerID, title: title, content: content, deadline: deadline})
	f.mu.Unlock()
	if f.fail != nil {
		return taskapi.Task{}, f.fail
	}
	return taskapi.Task{ID: 5, Title: title, Content: content, Deadline: deadline, Status: taskapi.StatusToDo}, nil
}

func (f *fakeCreator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func dayToken(year, month, day int) callback.CalendarToken {
	return callback.CalendarToken{Action: callback.CalendarDay, Year: year, Month: month, Day: day}
}

func TestHappyPathCreatesExactlyOneTask(t *testing.T) {
	creator := &fakeCreator{}
	e := NewEngine(creator, nil)
	out := &fakeOutbox{}
	ctx := context.Background()
	const owner = int64(99)

	if err := e.Start(ctx, owner, out); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !e.InProgress(owner) {
		t.Fatal("InProgress = false after Start")
	}
	if err := e.HandleText(ctx, owner, "сдать отчет", out); err != nil {
		t.Fatalf("HandleText(title): %v", err)
	}
	if err := e.HandleCalendar(ctx, owner, dayToken(2026, 9, 15), out); err != nil {
		t.Fatalf("HandleCalendar(day): %v", err)
	}
	if err := e.HandleText(ctx, owner, "к понедельнику", out); err != nil {
		t.Fatalf("HandleText(description): %v", err)
	}

	if got := creator.callCount(); got != 1 {
		t.Fatalf("CreateTask calls = %d, want 1", got)
	}
	call := creator.calls[0]
	want := createCall{ownerID: owner, title: "сдать отчет", content: "к понедельнику", deadline: "2026-09-15"}
	if call != want {
		t.Fatalf("CreateTask call = %+v, want %+v", call, want)
	}
	if e.InProgress(owner) {
		t.Fatal("dialogue still in progress after submission")
	}
	if last := out.last(t); !strings.Contains(last.text, "Задача создана") {
		t.Fatalf("last message = %q", last.text)
	}
}

func TestCancelKeywordAtEveryTextStage(t *testing.T) {
	stages := []struct {
		name  string
		setup func(e *Engine, ctx context.Context, owner int64, out Outbox)
	}{
		{"await_title", func(e *Engine, ctx context.Context, owner int64, out Outbox) {}},
		{"await_description", func(e *Engine, ctx context.Context, owner int64, out Outbox) {
			_ = e.HandleText(ctx, owner, "название", out)
			_ = e.HandleCalendar(ctx, owner, dayToken(2026, 9, 15), out)
		}},
	}
	for _, tc := range stages {
		t.Run(tc.name, func(t *testing.T) {
			creator := &fakeCreator{}
			e := NewEngine(creator, nil)
			out := &fakeOutbox{}
			ctx := context.Background()
			const owner = int64(7)

			_ = e.Start(ctx, owner, out)
			tc.setup(e, ctx, owner, out)

			if err := e.HandleText(ctx, owner, CancelKeyword, out); err != nil {
				t.Fatalf("cancel: %v", err)
			}
			if creator.callCount() != 0 {
				t.Fatal("cancel must not create a task")
			}
			if e.InProgress(owner) {
				t.Fatal("dialogue still in progress after cancel")
			}
			if last := out.last(t); last.text != MsgCancelled {
				t.Fatalf("last message = %q", last.text)
			}
		})
	}
}

func TestCalendarCancelDiscardsDraft(t *testing.T) {
	creator := &fakeCreator{}
	e := NewEngine(creator, nil)
	out := &fakeOutbox{}
	ctx := context.Background()
	const owner = int64(7)

	_ = e.Start(ctx, owner, out)
	_ = e.HandleText(ctx, owner, "название", out)

	tok := callback.CalendarToken{Action: callback.CalendarCancel}
	if err := e.HandleCalendar(ctx, owner, tok, out); err != nil {
		t.Fatalf("HandleCalendar(cancel): %v", err)
	}
	if creator.callCount() != 0 {
		t.Fatal("cancel must not create a task")
	}
	if e.InProgress(owner) {
		t.Fatal("dialogue still in progress after calendar cancel")
	}
}

func TestCalendarNavigationKeepsStage(t *testing.T) {
	creator := &fakeCreator{}
	e := NewEngine(creator, nil)
	out := &fakeOutbox{}
	ctx := context.Background()
	const owner = int64(7)

	_ = e.Start(ctx, owner, out)
	_ = e.HandleText(ctx, owner, "название", out)

	for _, action := range []string{callback.CalendarPrev, callback.CalendarNext} {
		tok := callback.CalendarToken{Action: action, Year: 2026, Month: 9}
		if err := e.HandleCalendar(ctx, owner, tok, out); err != nil {
			t.Fatalf("HandleCalendar(%s): %v", action, err)
		}
		last := out.last(t)
		if !last.edited || last.markup == nil {
			t.Fatalf("%s should edit the grid in place, got %+v", action, last)
		}
	}
	if !e.InProgress(owner) {
		t.Fatal("navigation must not end the dialogue")
	}

	// Picking a day still works after navigation.
	_ = e.HandleCalendar(ctx, owner, dayToken(2026, 10, 1), out)
	_ = e.HandleText(ctx, owner, "описание", out)
	if creator.callCount() != 1 {
		t.Fatalf("CreateTask calls = %d, want 1", creator.callCount())
	}
	if creator.calls[0].deadline != "2026-10-01" {
		t.Fatalf("deadline = %q", creator.calls[0].deadline)
	}
}

func TestTextAtDeadlineStageDoesNotAdvance(t *testing.T) {
	creator := &fakeCreator{}
	e := NewEngine(creator, nil)
	out := &fakeOutbox{}
	ctx := context.Background()
	const owner = int64(7)

	_ = e.Start(ctx, owner, out)
	_ = e.HandleText(ctx, owner, "название", out)
	if err := e.HandleText(ctx, owner, "завтра", out); err != nil {
		t.Fatalf("HandleText: %v", err)
	}
	if last := out.last(t); last.text != MsgUseCalendar {
		t.Fatalf("last message = %q", last.text)
	}
	// The calendar pick must still be accepted.
	_ = e.HandleCalendar(ctx, owner, dayToken(2026, 9, 15), out)
	_ = e.HandleText(ctx, owner, "описание", out)
	if creator.callCount() != 1 {
		t.Fatalf("CreateTask calls = %d, want 1", creator.callCount())
	}
}

func TestFailedSubmissionDiscardsDraft(t *testing.T) {
	creator := &fakeCreator{fail: &taskapi.ServiceError{Kind: taskapi.KindUnavailable, Op: "create_task"}}
	e := NewEngine(creator, nil)
	out := &fakeOutbox{}
	ctx := context.Background()
	const owner = int64(7)

	_ = e.Start(ctx, owner, out)
	_ = e.HandleText(ctx, owner, "название", out)
	_ = e.HandleCalendar(ctx, owner, dayToken(2026, 9, 15), out)
	if err := e.HandleText(ctx, owner, "описание", out); err != nil {
		t.Fatalf("HandleText(description): %v", err)
	}

	if e.InProgress(owner) {
		t.Fatal("failed submission must still discard the draft")
	}
	if last := out.last(t); last.text != MsgCreateFailed {
		t.Fatalf("last message = %q", last.text)
	}

	// A repeated description after failure must not resubmit.
	if err := e.HandleText(ctx, owner, "описание", out); err != nil {
		t.Fatalf("HandleText after failure: %v", err)
	}
	if creator.callCount() != 1 {
		t.Fatalf("CreateTask calls = %d, want 1", creator.callCount())
	}
}

func TestRestartDiscardsPriorDraft(t *testing.T) {
	creator := &fakeCreator{}
	e := NewEngine(creator, nil)
	out := &fakeOutbox{}
	ctx := context.Background()
	const owner = int64(7)

	_ = e.Start(ctx, owner, out)
	_ = e.HandleText(ctx, owner, "старое название", out)
	_ = e.Start(ctx, owner, out)
	_ = e.HandleText(ctx, owner, "новое название", out)
	_ = e.HandleCalendar(ctx, owner, dayToken(2026, 9, 15), out)
	_ = e.HandleText(ctx, owner, "описание", out)

	if creator.callCount() != 1 {
		t.Fatalf("CreateTask calls = %d, want 1", creator.callCount())
	}
	if creator.calls[0].title != "новое название" {
		t.Fatalf("title = %q", creator.calls[0].title)
	}
}

func TestRapidDoubleSubmissionCreatesOnce(t *testing.T) {
	creator := &fakeCreator{delay: 20 * time.Millisecond}
	e := NewEngine(creator, nil)
	out := &fakeOutbox{}
	ctx := context.Background()
	const owner = int64(7)

	_ = e.Start(ctx, owner, out)
	_ = e.HandleText(ctx, owner, "название", out)
	_ = e.HandleCalendar(ctx, owner, dayToken(2026, 9, 15), out)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = e.HandleText(ctx, owner, "описание", out)
		}()
	}
	wg.Wait()

	if got := creator.callCount(); got != 1 {
		t.Fatalf("CreateTask calls = %d, want 1", got)
	}
}

func TestOwnersDoNotBlockEachOther(t *testing.T) {
	creator := &fakeCreator{delay: 50 * time.Millisecond}
	e := NewEngine(creator, nil)
	ctx := context.Background()

	slowOut := &fakeOutbox{}
	_ = e.Start(ctx, 1, slowOut)
	_ = e.HandleText(ctx, 1, "медленная", slowOut)
	_ = e.HandleCalendar(ctx, 1, dayToken(2026, 9, 15), slowOut)

	done := make(chan struct{})
	go func() {
		_ = e.HandleText(ctx, 1, "описание", slowOut)
		close(done)
	}()

	// While owner 1 waits on the service, owner 2 must advance freely.
	fastOut := &fakeOutbox{}
	start := time.Now()
	_ = e.Start(ctx, 2, fastOut)
	_ = e.HandleText(ctx, 2, "быстрая", fastOut)
	if elapsed := time.Since(start); elapsed > 40*time.Millisecond {
		t.Fatalf("owner 2 was blocked for %v", elapsed)
	}
	<-done
}

func TestEventsWithNoDialogueAreIgnored(t *testing.T) {
	creator := &fakeCreator{}
	e := NewEngine(creator, nil)
	out := &fakeOutbox{}
	ctx := context.Background()

	if err := e.HandleText(ctx, 7, "просто текст", out); err != nil {
		t.Fatalf("HandleText: %v", err)
	}
	if err := e.HandleCalendar(ctx, 7, dayToken(2026, 9, 15), out); err != nil {
		t.Fatalf("HandleCalendar: %v", err)
	}
	if len(out.sent) != 0 {
		t.Fatalf("unexpected messages: %+v", out.sent)
	}
	if creator.callCount() != 0 {
		t.Fatal("no task should be created")
	}
}
