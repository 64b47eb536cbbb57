package bot

import (
	"context"
	"strconv"
	"strings"

	"github.com/personal-assistant-for-students/dispatcher-service/core/telegram/keyboard"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/callback"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/dialog"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/presenter"
	"github.com/personal-assistant-for-students/dispatcher-service/internal/taskapi"
)

// listTasksFlow renders the owner's tasks sorted by deadline, one selectable
// button per task.
func (a *App) listTasksFlow(ctx context.Context, ownerID int64, out dialog.Outbox) error {
	tasks, err := a.tasks.ListTasks(ctx, ownerID)
	if err != nil {
		if sendErr := out.Send(msgListFailed); sendErr != nil {
			return sendErr
		}
		return err
	}
	if len(tasks) == 0 {
		return out.Send(msgNoTasks)
	}

	sorted, err := presenter.SortByDeadline(tasks)
	if err != nil {
		if sendErr := out.Send(msgListFailed); sendErr != nil {
			return sendErr
		}
		return err
	}

	buttons := make([]keyboard.RawBtn, 0, len(sorted))
	for _, task := range sorted {
		buttons = append(buttons, keyboard.RawBtn{
			Text: presenter.ListLine(task),
			Data: callback.TaskToken{TaskID: task.ID}.Encode(),
		})
	}
	return out.SendKeyboard(msgTaskListHeader, keyboard.InlineRaw(buttons))
}

// taskDetailFlow shows the full task card with one button per status
// transition.
func (a *App) taskDetailFlow(ctx context.Context, ownerID, taskID int64, out dialog.Outbox) error {
	task, err := a.tasks.GetTask(ctx, taskID, ownerID)
	if err != nil {
		if sendErr := out.Send(msgTaskFetchFailed); sendErr != nil {
			return sendErr
		}
		return err
	}

	buttons := make([]keyboard.RawBtn, 0, len(taskapi.PrimaryStatuses))
	for _, status := range taskapi.PrimaryStatuses {
		buttons = append(buttons, keyboard.RawBtn{
			Text: status,
			Data: callback.StatusToken{TaskID: task.ID, Status: status}.Encode(),
		})
	}
	return out.SendKeyboard(presenter.Detail(task), keyboard.InlineRaw(buttons))
}

// statusUpdateFlow applies a transition and re-fetches the task so the user
// always sees the service's own view, never an optimistic local one.
func (a *App) statusUpdateFlow(ctx context.Context, ownerID int64, tok callback.StatusToken, out dialog.Outbox) error {
	if err := a.tasks.UpdateTaskStatus(ctx, tok.TaskID, ownerID, tok.Status); err != nil {
		if sendErr := out.Send(msgUpdateFailed); sendErr != nil {
			return sendErr
		}
		return err
	}

	task, err := a.tasks.GetTask(ctx, tok.TaskID, ownerID)
	if err != nil {
		if sendErr := out.Send(msgRefetchFailed); sendErr != nil {
			return sendErr
		}
		return err
	}
	return out.Send(presenter.Updated(task))
}

// manualUpdateFlow serves the "/update <id> статус на <статус>" text form.
func (a *App) manualUpdateFlow(ctx context.Context, ownerID int64, text string, out dialog.Outbox) error {
	parts := strings.Fields(text)
	if len(parts) < 5 {
		return out.Send(msgUpdateUsage)
	}
	taskID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return out.Send(msgUpdateUsage)
	}
	status := parts[4]

	if err := a.tasks.UpdateTaskStatus(ctx, taskID, ownerID, status); err != nil {
		if sendErr := out.Send(msgUpdateFailed); sendErr != nil {
			return sendErr
		}
		return err
	}
	if err := out.Send(msgUpdateOK); err != nil {
		return err
	}
	return a.listTasksFlow(ctx, ownerID, out)
}
