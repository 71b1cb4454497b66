package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/filedash/filedash/internal/config"
	"github.com/filedash/filedash/internal/constants"
	"github.com/filedash/filedash/internal/logging"
	"github.com/filedash/filedash/internal/models"
	"github.com/filedash/filedash/internal/validation"
)

func newTestClient(t *testing.T, handler nethttp.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.NewConfig()
	cfg.APIBaseURL = srv.URL + "/api"
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000

	c, err := NewClient(cfg, "tok-123")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c, srv
}

func writeJSON(w nethttp.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientRejectsEmptyBaseURL(t *testing.T) {
	cfg := config.NewConfig()
	cfg.APIBaseURL = ""

	_, err := NewClient(cfg, "tok")
	if err == nil {
		t.Fatal("NewClient() should return error for empty APIBaseURL")
	}
	if !strings.Contains(err.Error(), "API base URL is empty") {
		t.Errorf("NewClient() error = %q, want error containing 'API base URL is empty'", err.Error())
	}
}

func TestListFiles(t *testing.T) {
	parent := "folder-9"
	tests := []struct {
		name       string
		parentID   *string
		wantParent string
		hasParent  bool
	}{
		{"root", nil, "", false},
		{"folder", &parent, "folder-9", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
				if r.Method != nethttp.MethodGet || r.URL.Path != "/api/files" {
					t.Errorf("request = %s %s, want GET /api/files", r.Method, r.URL.Path)
				}
				if got := r.URL.Query().Get("userId"); got != "u1" {
					t.Errorf("userId = %q, want u1", got)
				}
				if got, ok := r.URL.Query()["parentId"]; ok != tt.hasParent || (ok && got[0] != tt.wantParent) {
					t.Errorf("parentId = %v (present %v), want %q (present %v)", got, ok, tt.wantParent, tt.hasParent)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
					t.Errorf("Authorization = %q", got)
				}
				if r.Header.Get("X-Request-ID") == "" {
					t.Error("missing X-Request-ID")
				}
				writeJSON(w, 200, []map[string]interface{}{
					{"id": "f1", "name": "Docs", "isFolder": true},
					{"id": "f2", "name": "cat.png", "isFolder": false, "isStarred": true, "type": "image/png"},
				})
			})

			files, err := c.ListFiles(context.Background(), "u1", tt.parentID)
			if err != nil {
				t.Fatalf("ListFiles() error = %v", err)
			}
			if len(files) != 2 || files[0].ID != "f1" || !files[1].IsStarred {
				t.Errorf("ListFiles() = %+v", files)
			}
		})
	}
}

func TestListFilesNullBody(t *testing.T) {
	c, _ := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, 200, nil)
	})
	files, err := c.ListFiles(context.Background(), "u1", nil)
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if files == nil || len(files) != 0 {
		t.Errorf("ListFiles() = %v, want empty non-nil slice", files)
	}
}

func TestListFilesHTTPError(t *testing.T) {
	c, _ := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, 500, map[string]string{"error": "database unavailable"})
	})

	_, err := c.ListFiles(context.Background(), "u1", nil)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fe.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", fe.StatusCode)
	}
	if !strings.Contains(fe.Error(), "database unavailable") {
		t.Errorf("Error() = %q, want server message", fe.Error())
	}
}

func TestGetIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(503)
			return
		}
		writeJSON(w, 200, []models.FileEntry{{ID: "f1"}})
	}))
	defer srv.Close()

	cfg := config.NewConfig()
	cfg.APIBaseURL = srv.URL
	cfg.MaxRetries = 2
	c, err := NewClient(cfg, "tok")
	if err != nil {
		t.Fatal(err)
	}

	files, err := c.ListFiles(context.Background(), "u1", nil)
	if err != nil {
		t.Fatalf("ListFiles() error = %v", err)
	}
	if len(files) != 1 || calls.Load() != 2 {
		t.Errorf("files = %d, calls = %d; want 1 file after 2 calls", len(files), calls.Load())
	}
}

func TestMutationsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		calls.Add(1)
		w.WriteHeader(503)
	}))
	defer srv.Close()

	cfg := config.NewConfig()
	cfg.APIBaseURL = srv.URL
	cfg.MaxRetries = 3
	c, err := NewClient(cfg, "tok")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.ToggleStar(context.Background(), "f1"); !IsFetchError(err) {
		t.Fatalf("ToggleStar() error = %v, want FetchError", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestToggleStarAndTrash(t *testing.T) {
	c, _ := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		switch r.URL.Path {
		case "/api/files/f2/star":
			writeJSON(w, 200, map[string]interface{}{"id": "f2", "name": "cat.png", "isStarred": false})
		case "/api/files/f2/trash":
			writeJSON(w, 200, map[string]bool{"isTrash": true})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(404)
		}
	})

	star, err := c.ToggleStar(context.Background(), "f2")
	if err != nil {
		t.Fatalf("ToggleStar() error = %v", err)
	}
	if star.IsStarred == nil || *star.IsStarred {
		t.Errorf("ToggleStar() IsStarred = %v, want false", star.IsStarred)
	}

	trash, err := c.ToggleTrash(context.Background(), "f2")
	if err != nil {
		t.Fatalf("ToggleTrash() error = %v", err)
	}
	if !trash.IsTrash {
		t.Error("ToggleTrash() IsTrash = false, want true")
	}
}

func TestDeleteFile(t *testing.T) {
	tests := []struct {
		name         string
		success      bool
		wantErr      bool
		wantRejected bool
	}{
		{"success", true, false, false},
		{"rejected", false, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
				if r.Method != nethttp.MethodDelete || r.URL.Path != "/api/files/f2/delete" {
					t.Errorf("request = %s %s", r.Method, r.URL.Path)
				}
				writeJSON(w, 200, map[string]bool{"success": tt.success})
			})

			_, err := c.DeleteFile(context.Background(), "f2")
			if (err != nil) != tt.wantErr {
				t.Fatalf("DeleteFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := errors.Is(err, ErrOperationRejected); got != tt.wantRejected {
				t.Errorf("errors.Is(ErrOperationRejected) = %v, want %v", got, tt.wantRejected)
			}
		})
	}
}

func TestEmptyTrash(t *testing.T) {
	c, _ := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodDelete || r.URL.Path != "/api/files/empty-trash" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		writeJSON(w, 200, map[string]bool{"success": true})
	})

	res, err := c.EmptyTrash(context.Background())
	if err != nil || !res.Success {
		t.Errorf("EmptyTrash() = %+v, %v", res, err)
	}
}

func TestCreateFolder(t *testing.T) {
	c, _ := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost || r.URL.Path != "/api/folders/create" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		var body models.CreateFolderRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Name != "Photos" || body.UserID != "u1" || body.ParentID == nil || *body.ParentID != "root-a" {
			t.Errorf("body = %+v", body)
		}
		writeJSON(w, 201, map[string]interface{}{"id": "new", "name": body.Name, "isFolder": true})
	})

	parent := "root-a"
	f, err := c.CreateFolder(context.Background(), "Photos", "u1", &parent)
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	if f.ID != "new" || !f.IsFolder {
		t.Errorf("CreateFolder() = %+v", f)
	}
}

func TestCreateFolderSendsNullParentAtRoot(t *testing.T) {
	c, _ := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		raw, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(raw), `"parentId":null`) {
			t.Errorf("body = %s, want parentId null", raw)
		}
		writeJSON(w, 200, map[string]interface{}{"id": "new", "isFolder": true})
	})
	if _, err := c.CreateFolder(context.Background(), "Top", "u1", nil); err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
}

func TestUploadFile(t *testing.T) {
	content := strings.Repeat("x", 64*1024)
	c, _ := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/api/files/upload" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
			w.WriteHeader(400)
			return
		}
		if got := r.FormValue("userId"); got != "u1" {
			t.Errorf("userId = %q", got)
		}
		if got := r.FormValue("parentId"); got != "folder-1" {
			t.Errorf("parentId = %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			w.WriteHeader(400)
			return
		}
		data, _ := io.ReadAll(f)
		if hdr.Filename != "notes.txt" || len(data) != len(content) {
			t.Errorf("file = %s (%d bytes)", hdr.Filename, len(data))
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "text/plain" {
			t.Errorf("part Content-Type = %q", ct)
		}
		writeJSON(w, 200, map[string]interface{}{"id": "up1", "name": hdr.Filename, "size": len(data)})
	})

	parent := "folder-1"
	var last, total int64
	entry, err := c.UploadFile(context.Background(), UploadRequest{
		Name:        "notes.txt",
		ContentType: "text/plain",
		Content:     strings.NewReader(content),
		UserID:      "u1",
		ParentID:    &parent,
	}, func(sent, tot int64) {
		if sent < last {
			t.Errorf("progress went backwards: %d after %d", sent, last)
		}
		last, total = sent, tot
	})
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if entry.ID != "up1" {
		t.Errorf("UploadFile() = %+v", entry)
	}
	if total == 0 || last != total {
		t.Errorf("final progress = %d/%d, want complete", last, total)
	}
}

func TestUploadFileRejectsOversizeContent(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, 200, map[string]interface{}{"id": "up1"})
	})

	content := strings.NewReader(strings.Repeat("x", constants.MaxUploadSize+1))
	_, err := c.UploadFile(context.Background(), UploadRequest{Name: "big.bin", Content: content, UserID: "u1"}, nil)
	if !validation.IsValidationError(err) {
		t.Fatalf("UploadFile() error = %v, want ValidationError", err)
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("server hit %d times, want 0", n)
	}
}

func TestSetLoggerCapturesFailures(t *testing.T) {
	srv := httptest.NewServer(nethttp.NotFoundHandler())
	srv.Close()

	cfg := config.NewConfig()
	cfg.APIBaseURL = srv.URL + "/api"
	c, err := NewClient(cfg, "tok")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	l := logging.NewLogger("tui", nil)
	l.SetOutput(&buf)
	c.SetLogger(l)

	if _, err := c.ToggleStar(context.Background(), "f1"); !IsFetchError(err) {
		t.Fatalf("ToggleStar() error = %v, want FetchError", err)
	}
	out := buf.String()
	if !strings.Contains(out, "api call failed") || !strings.Contains(out, `"component":"api"`) {
		t.Errorf("logger output = %q", out)
	}
}

func TestFetchErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &FetchError{Op: "list files", StatusCode: 401, Err: cause}
	if !errors.Is(err, cause) {
		t.Error("FetchError should unwrap to its cause")
	}
	if !err.Unauthorized() {
		t.Error("Unauthorized() = false for 401")
	}
	if got := err.Error(); got != "list files failed: status 401: boom" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&FetchError{Op: "x", Err: cause}).Error(); got != "x failed: boom" {
		t.Errorf("Error() = %q", got)
	}
}
