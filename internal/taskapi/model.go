package taskapi

// Primary task statuses as the service stores them.
const (
	StatusToDo  = "Сделать"
	StatusDoing = "Делаю"
	StatusDone  = "Выполнено"
)

// PrimaryStatuses lists the statuses a user may transition a task to.
var PrimaryStatuses = []string{StatusToDo, StatusDoing, StatusDone}

// Task is the remote record owned by the task service. It is never cached
// or mutated locally, only held transiently for display.
type Task struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Content          string `json:"content"`
	Deadline         string `json:"deadline"`
	Status           string `json:"status"`
	AdditionalStatus string `json:"additional_status"`
}

// createRequest is the POST /tasks body.
type createRequest struct {
	OwnerID  int64  `json:"owner_id" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	Deadline string `json:"deadline" validate:"required,datetime=2006-01-02"`
}

// updateStatusRequest is the PUT /tasks/<id> body.
type updateStatusRequest struct {
	OwnerID int64  `json:"owner_id"`
	Status  string `json:"status"`
}
