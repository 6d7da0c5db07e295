package tasks

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"mindflow/internal/auth"
	"mindflow/internal/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.InitDB(filepath.Join(t.TempDir(), "tasks-test.db"))
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func asUser(req *http.Request, userID string) *http.Request {
	req.Header.Set(auth.HeaderUserID, userID)
	req.Header.Set(auth.HeaderUserEmail, userID+"@example.com")
	return req
}

func createTask(t *testing.T, h *Handler, userID, body string) Task {
	t.Helper()
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(body)), userID)
	rec := httptest.NewRecorder()
	h.Collection(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("create task: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data Task `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp.Data
}

func TestCreateTaskDefaults(t *testing.T) {
	h := NewHandler(newTestDB(t))

	task := createTask(t, h, "u1", `{"title":"买牛奶"}`)
	if task.Status != "pending" || task.Priority != PriorityMedium || task.Type != "task" {
		t.Fatalf("unexpected defaults: %+v", task)
	}
}

func TestCreateTaskCarriesAIMetadata(t *testing.T) {
	h := NewHandler(newTestDB(t))

	body := `{
		"title": "每天跑步",
		"aiType": "task",
		"aiSummary": "每天跑步锻炼",
		"aiConfidence": 0.85,
		"aiModel": "deepseek-chat",
		"estimatedDuration": "30分钟",
		"isRecurring": true,
		"frequency": "daily"
	}`
	task := createTask(t, h, "u1", body)
	if task.AIConfidence != 0.85 || task.AIModel != "deepseek-chat" {
		t.Fatalf("AI metadata not persisted: %+v", task)
	}
	if !task.IsRecurring || task.Frequency != "daily" {
		t.Fatalf("recurrence not persisted: %+v", task)
	}

	stored, err := TaskByID(h.DB, "u1", task.ID)
	if err != nil {
		t.Fatalf("TaskByID failed: %v", err)
	}
	if stored.AISummary != "每天跑步锻炼" || stored.EstimatedDuration != "30分钟" {
		t.Fatalf("stored task differs: %+v", stored)
	}
}

func TestCreateTaskRejectsInvalidFrequency(t *testing.T) {
	h := NewHandler(newTestDB(t))

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/tasks",
		strings.NewReader(`{"title":"x","frequency":"hourly"}`)), "u1")
	rec := httptest.NewRecorder()
	h.Collection(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	h := NewHandler(newTestDB(t))
	task := createTask(t, h, "u1", `{"title":"买牛奶"}`)

	req := asUser(httptest.NewRequest(http.MethodPut, "/api/tasks/"+task.ID,
		strings.NewReader(`{"status":"completed"}`)), "u1")
	rec := httptest.NewRecorder()
	h.Item(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	stored, err := TaskByID(h.DB, "u1", task.ID)
	if err != nil {
		t.Fatalf("TaskByID failed: %v", err)
	}
	if stored.Status != "completed" || stored.Title != "买牛奶" {
		t.Fatalf("unexpected stored task: %+v", stored)
	}
}

func TestTasksScopedToOwner(t *testing.T) {
	h := NewHandler(newTestDB(t))
	task := createTask(t, h, "u1", `{"title":"买牛奶"}`)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/tasks/"+task.ID, nil), "u2")
	rec := httptest.NewRecorder()
	h.Item(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign task, got %d", rec.Code)
	}
}

func TestPriorityLabelMapping(t *testing.T) {
	if PriorityFromLabel("low") != PriorityLow || PriorityFromLabel("high") != PriorityHigh {
		t.Fatal("label to priority mapping broken")
	}
	if PriorityFromLabel("unknown") != PriorityMedium {
		t.Fatal("unknown label should map to medium")
	}
	if LabelForPriority(PriorityLow) != "low" || LabelForPriority(PriorityHigh) != "high" {
		t.Fatal("priority to label mapping broken")
	}
	if LabelForPriority(0) != "medium" {
		t.Fatal("out-of-range priority should label as medium")
	}
}
