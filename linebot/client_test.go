package linebot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReplySendsMessages(t *testing.T) {
	var gotAuth, gotRetryKey string
	var gotBody replyRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRetryKey = r.Header.Get("X-Line-Retry-Key")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClientWithEndpoint("token-123", srv.URL)

	err := client.Reply(context.Background(), "rt-1", []string{"first", "second"})
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}

	if gotAuth != "Bearer token-123" {
		t.Errorf("wrong auth header: %q", gotAuth)
	}
	if gotRetryKey == "" {
		t.Error("missing idempotency key")
	}
	if gotBody.ReplyToken != "rt-1" {
		t.Errorf("wrong reply token: %q", gotBody.ReplyToken)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Text != "first" {
		t.Errorf("wrong messages: %+v", gotBody.Messages)
	}
	for _, m := range gotBody.Messages {
		if m.Type != "text" {
			t.Errorf("expected text messages, got %q", m.Type)
		}
	}
}

func TestReplyTruncatesToFiveMessages(t *testing.T) {
	var got int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req replyRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		got = len(req.Messages)
	}))
	defer srv.Close()

	client := NewClientWithEndpoint("token", srv.URL)
	messages := []string{"1", "2", "3", "4", "5", "6", "7"}

	if err := client.Reply(context.Background(), "rt-1", messages); err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if got != maxMessagesPerReply {
		t.Errorf("expected %d messages, got %d", maxMessagesPerReply, got)
	}
}

func TestReplyEmptyIsANoOp(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClientWithEndpoint("token", srv.URL)
	if err := client.Reply(context.Background(), "rt-1", nil); err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if called {
		t.Error("empty reply hit the endpoint")
	}
}

func TestReplySurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid token"}`))
	}))
	defer srv.Close()

	client := NewClientWithEndpoint("bad-token", srv.URL)
	err := client.Reply(context.Background(), "rt-1", []string{"hello"})
	if err == nil {
		t.Fatal("expected an error for a 401 response")
	}
}
