package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestSender(srv *httptest.Server) *TelegramSender {
	return &TelegramSender{
		token:   "TESTTOKEN",
		apiBase: srv.URL,
		http:    &http.Client{Timeout: 2 * time.Second},
	}
}

func TestTelegramSend(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	s := newTestSender(srv)
	if err := s.Send(context.Background(), 12345, "ciao"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/botTESTTOKEN/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody.ChatID != 12345 || gotBody.Text != "ciao" || gotBody.ParseMode != "Markdown" {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestTelegramSendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"ok": false, "description": "bot was blocked by the user"}`))
	}))
	defer srv.Close()

	s := newTestSender(srv)
	err := s.Send(context.Background(), 12345, "ciao")
	if err == nil {
		t.Fatal("expected error on HTTP 403")
	}
}
