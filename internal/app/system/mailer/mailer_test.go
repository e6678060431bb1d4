package mailer

import (
	"net/smtp"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSend_LogsWhenDisabled(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := New(Config{}, zap.New(core))

	if err := m.Send(Email{To: "ann@example.com", Subject: "hi", TextBody: "body"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["to"]; got != "ann@example.com" {
		t.Errorf("logged to: got %v", got)
	}
}

func TestSend_SMTP(t *testing.T) {
	m := New(Config{Host: "smtp.example.com", Port: 587, User: "u", Pass: "p", From: "noreply@example.com"}, zap.NewNop())

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	email := BuildResetEmail(ResetEmailData{SiteName: "StudyTrack", ResetLink: "https://x/reset?token=abc", ExpiresIn: "1 hour"})
	email.To = "ann@example.com"
	if err := m.Send(email); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr: got %q", gotAddr)
	}
	if gotFrom != "noreply@example.com" || len(gotTo) != 1 || gotTo[0] != "ann@example.com" {
		t.Errorf("envelope: from=%q to=%v", gotFrom, gotTo)
	}
	body := string(gotMsg)
	for _, want := range []string{"Subject: Reset your StudyTrack password", "text/plain", "text/html", "https://x/reset?token=abc"} {
		if !strings.Contains(body, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSend_EmptyRecipient(t *testing.T) {
	if err := New(Config{}, zap.NewNop()).Send(Email{}); err == nil {
		t.Error("expected error for empty recipient")
	}
}
