package taskapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Options{BaseURL: srv.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, srv
}

func TestListTasks(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("owner"); got != "99" {
			t.Errorf("owner = %q, want 99", got)
		}
		_ = json.NewEncoder(w).Encode([]Task{
			{ID: 1, Title: "первая", Deadline: "2026-09-05", Status: StatusToDo},
			{ID: 2, Title: "вторая", Deadline: "2026-09-01", Status: StatusDoing},
		})
	})

	tasks, err := client.ListTasks(context.Background(), 99)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != 1 || tasks[1].Status != StatusDoing {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestListTasksBadStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.ListTasks(context.Background(), 99)
	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want *ServiceError", err)
	}
	if se.Kind != KindBadStatus || se.HTTPCode != 500 {
		t.Fatalf("got %+v", se)
	}
	if se.Code() != "BAD_STATUS" {
		t.Fatalf("Code() = %q", se.Code())
	}
}

func TestListTasksUnavailable(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := client.ListTasks(context.Background(), 99)
	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want *ServiceError", err)
	}
	if se.Kind != KindUnavailable {
		t.Fatalf("kind = %v, want KindUnavailable", se.Kind)
	}
	if se.Code() != "SERVICE_UNAVAILABLE" {
		t.Fatalf("Code() = %q", se.Code())
	}
}

func TestGetTaskNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.GetTask(context.Background(), 17, 99)
	if !IsNotFound(err) {
		t.Fatalf("IsNotFound = false for %v", err)
	}
}

func TestGetTask(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/17" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(Task{ID: 17, Title: "сдать отчет", Status: StatusToDo, AdditionalStatus: "Горит"})
	})

	task, err := client.GetTask(context.Background(), 17, 99)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.ID != 17 || task.AdditionalStatus != "Горит" {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestCreateTask(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tasks" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req["title"] != "сдать отчет" || req["deadline"] != "2026-09-15" {
			t.Errorf("body = %v", req)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(Task{ID: 5, Title: "сдать отчет", Deadline: "2026-09-15", Status: StatusToDo})
	})

	task, err := client.CreateTask(context.Background(), 99, "сдать отчет", "к понедельнику", "2026-09-15")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID != 5 {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestCreateTaskRejectedOnNon201(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Task{ID: 5})
	})

	_, err := client.CreateTask(context.Background(), 99, "t", "c", "2026-09-15")
	var se *ServiceError
	if !errors.As(err, &se) || se.Kind != KindRejected {
		t.Fatalf("got %v, want rejection", err)
	}
}

func TestCreateTaskValidatesBeforeSending(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	cases := []struct {
		name     string
		title    string
		content  string
		deadline string
	}{
		{"empty title", "", "c", "2026-09-15"},
		{"empty content", "t", "", "2026-09-15"},
		{"bad deadline", "t", "c", "15.09.2026"},
	}
	for _, tc := range cases {
		_, err := client.CreateTask(context.Background(), 99, tc.title, tc.content, tc.deadline)
		var se *ServiceError
		if !errors.As(err, &se) || se.Kind != KindRejected {
			t.Errorf("%s: got %v, want rejection", tc.name, err)
		}
	}
	if called {
		t.Fatal("invalid request reached the server")
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/tasks/17" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.OwnerID != 99 || req.Status != StatusDone {
			t.Errorf("body = %+v", req)
		}
	})

	if err := client.UpdateTaskStatus(context.Background(), 17, 99, StatusDone); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
}

func TestUpdateTaskStatusRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	err := client.UpdateTaskStatus(context.Background(), 17, 99, StatusDone)
	var se *ServiceError
	if !errors.As(err, &se) || se.Kind != KindRejected {
		t.Fatalf("got %v, want rejection", err)
	}
	if se.Code() != "REJECTED_BY_SERVICE" {
		t.Fatalf("Code() = %q", se.Code())
	}
}
