package principles

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
	database, err := db.InitDB(filepath.Join(t.TempDir(), "principles-test.db"))
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

func TestCreateListDeletePrinciple(t *testing.T) {
	h := NewHandler(newTestDB(t))

	body := `{"content":"诚信为本","description":"说到做到","tags":["品格"],"weight":3}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/principles", strings.NewReader(body)), "u1")
	rec := httptest.NewRecorder()
	h.Collection(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var created struct {
		Data Principle `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if created.Data.Source != "personal" || created.Data.Weight != 3 {
		t.Fatalf("unexpected created principle: %+v", created.Data)
	}

	req = asUser(httptest.NewRequest(http.MethodGet, "/api/principles", nil), "u1")
	rec = httptest.NewRecorder()
	h.Collection(rec, req)
	var listed struct {
		Data []Principle `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Data) != 1 || listed.Data[0].Content != "诚信为本" {
		t.Fatalf("unexpected list: %+v", listed.Data)
	}

	req = asUser(httptest.NewRequest(http.MethodDelete, "/api/principles/"+created.Data.ID, nil), "u1")
	rec = httptest.NewRecorder()
	h.Item(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}

	remaining, err := PrinciplesByUser(h.DB, "u1")
	if err != nil {
		t.Fatalf("PrinciplesByUser failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected empty list after delete, got %+v", remaining)
	}
}

func TestCreatePrincipleRequiresContent(t *testing.T) {
	h := NewHandler(newTestDB(t))

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/principles", strings.NewReader(`{"content":""}`)), "u1")
	rec := httptest.NewRecorder()
	h.Collection(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdatePrincipleMergesFields(t *testing.T) {
	h := NewHandler(newTestDB(t))

	p, err := InsertPrinciple(h.DB, Principle{UserID: "u1", Content: "诚信为本", Description: "说到做到"})
	if err != nil {
		t.Fatalf("InsertPrinciple failed: %v", err)
	}

	req := asUser(httptest.NewRequest(http.MethodPut, "/api/principles/"+p.ID,
		strings.NewReader(`{"weight":5,"tags":["核心"]}`)), "u1")
	rec := httptest.NewRecorder()
	h.Item(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	stored, err := PrincipleByID(h.DB, "u1", p.ID)
	if err != nil {
		t.Fatalf("PrincipleByID failed: %v", err)
	}
	if stored.Weight != 5 || len(stored.Tags) != 1 {
		t.Fatalf("update not applied: %+v", stored)
	}
	if stored.Content != "诚信为本" || stored.Description != "说到做到" {
		t.Fatalf("untouched fields changed: %+v", stored)
	}
}

func TestDeletePrincipleScopedToOwner(t *testing.T) {
	h := NewHandler(newTestDB(t))

	p, err := InsertPrinciple(h.DB, Principle{UserID: "u1", Content: "诚信为本"})
	if err != nil {
		t.Fatalf("InsertPrinciple failed: %v", err)
	}

	req := asUser(httptest.NewRequest(http.MethodDelete, "/api/principles/"+p.ID, nil), "u2")
	rec := httptest.NewRecorder()
	h.Item(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign delete, got %d", rec.Code)
	}
}
