package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gymstore/backend/pkg/config"
)

func TestClientSendPostsSendgridPayload(t *testing.T) {
	var gotAuth string
	var gotPayload sendgridPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != sendPath {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := New(config.MailerConfig{
		APIKey:      "sg-key",
		DefaultFrom: "store@gymstore.test",
		BaseURL:     server.URL,
	}, nil)

	err := sender.Send(context.Background(), Message{
		To:        "lifter@example.com",
		ToName:    "Lifter",
		Subject:   "Order confirmed",
		PlainText: "Thanks for your order.",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if gotAuth != "Bearer sg-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotPayload.From.Email != "store@gymstore.test" {
		t.Fatalf("unexpected from %q", gotPayload.From.Email)
	}
	if len(gotPayload.Personalizations) != 1 || gotPayload.Personalizations[0].To[0].Email != "lifter@example.com" {
		t.Fatalf("unexpected recipients %+v", gotPayload.Personalizations)
	}
	if gotPayload.Subject != "Order confirmed" {
		t.Fatalf("unexpected subject %q", gotPayload.Subject)
	}
}

func TestClientSendSurfacesProviderErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer server.Close()

	sender := New(config.MailerConfig{
		APIKey:      "wrong",
		DefaultFrom: "store@gymstore.test",
		BaseURL:     server.URL,
	}, nil)

	err := sender.Send(context.Background(), Message{
		To:        "lifter@example.com",
		Subject:   "Order confirmed",
		PlainText: "body",
	})
	if err == nil {
		t.Fatal("expected provider error")
	}
}

func TestClientSendValidatesMessage(t *testing.T) {
	sender := &Client{httpClient: http.DefaultClient, baseURL: "http://unused", from: "a@b.c"}

	if err := sender.Send(context.Background(), Message{Subject: "s", PlainText: "b"}); err == nil {
		t.Fatal("expected missing recipient error")
	}
	if err := sender.Send(context.Background(), Message{To: "a@b.c", PlainText: "b"}); err == nil {
		t.Fatal("expected missing subject error")
	}
	if err := sender.Send(context.Background(), Message{To: "a@b.c", Subject: "s"}); err == nil {
		t.Fatal("expected missing body error")
	}
}

func TestNoopSenderWhenDisabled(t *testing.T) {
	sender := New(config.MailerConfig{}, nil)
	if _, ok := sender.(*noopSender); !ok {
		t.Fatalf("expected noop sender, got %T", sender)
	}
	if err := sender.Send(context.Background(), Message{To: "a@b.c", Subject: "s", PlainText: "b"}); err != nil {
		t.Fatalf("noop send: %v", err)
	}
}
