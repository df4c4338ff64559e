package email

import (
	"strings"
	"testing"
)

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("no-reply@clinisched.local", "pat@example.com", "Appointment reminder", "See you at 10:00.")

	for _, want := range []string{
		"From: no-reply@clinisched.local\r\n",
		"To: pat@example.com\r\n",
		"Subject: Appointment reminder\r\n",
		"\r\n\r\nSee you at 10:00.\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestNewSMTPSender_DefaultFrom(t *testing.T) {
	s := NewSMTPSender("mailpit", "1025", "  ")
	if s.from != "no-reply@clinisched.local" {
		t.Fatalf("expected default from address, got %q", s.from)
	}
	if s.addr != "mailpit:1025" {
		t.Fatalf("unexpected addr %q", s.addr)
	}
}
