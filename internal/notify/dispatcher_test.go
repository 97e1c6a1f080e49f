package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"studio-backend/internal/requests"
)

func quotedRequest() requests.Request {
	price := 500000.0
	return requests.Request{
		ID:                 "req-1",
		OwnerEmail:         "owner@example.com",
		Title:              "Brand site",
		FinalPrice:         &price,
		PriceJustification: "Base scope plus two revision rounds",
		AdminResponse:      "We can start next week.",
	}
}

func TestDispatcherSendsQuoteEmail(t *testing.T) {
	mailer := &LogMailer{}
	d := NewDispatcher(mailer, "studio@example.com")

	req := quotedRequest()
	d.Run(context.Background(), req, []requests.NotificationTask{
		{Kind: requests.NotifyQuote, Recipient: req.OwnerEmail},
	})

	if len(mailer.Sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(mailer.Sent))
	}
	email := mailer.Sent[0]
	if email.To != "owner@example.com" || email.From != "studio@example.com" {
		t.Errorf("email addressing = %+v", email)
	}
	if !strings.Contains(email.HTMLBody, "500 000 FCFA") {
		t.Errorf("body missing formatted price: %q", email.HTMLBody)
	}
	if !strings.Contains(email.HTMLBody, "Base scope plus two revision rounds") {
		t.Errorf("body missing justification: %q", email.HTMLBody)
	}
}

func TestDispatcherSendsResponseAndDelivery(t *testing.T) {
	mailer := &LogMailer{}
	d := NewDispatcher(mailer, "studio@example.com")
	req := quotedRequest()

	d.Run(context.Background(), req, []requests.NotificationTask{
		{Kind: requests.NotifyResponse, Recipient: req.OwnerEmail},
		{Kind: requests.NotifyDelivery, Recipient: req.OwnerEmail},
	})

	if len(mailer.Sent) != 2 {
		t.Fatalf("sent = %d, want 2", len(mailer.Sent))
	}
	if !strings.Contains(mailer.Sent[0].HTMLBody, "We can start next week.") {
		t.Errorf("response body = %q", mailer.Sent[0].HTMLBody)
	}
	if !strings.Contains(mailer.Sent[1].Subject, "Delivered") {
		t.Errorf("delivery subject = %q", mailer.Sent[1].Subject)
	}
}

type failingMailer struct{ calls int }

func (m *failingMailer) Send(context.Context, Email) error {
	m.calls++
	return errors.New("mail API down")
}

func TestDispatcherSwallowsSendFailures(t *testing.T) {
	mailer := &failingMailer{}
	d := NewDispatcher(mailer, "studio@example.com")
	req := quotedRequest()

	// Must not panic or propagate the failure.
	d.Run(context.Background(), req, []requests.NotificationTask{
		{Kind: requests.NotifyQuote, Recipient: req.OwnerEmail},
		{Kind: requests.NotifyDelivery, Recipient: req.OwnerEmail},
	})
	if mailer.calls != 2 {
		t.Errorf("calls = %d, want 2 (one per task)", mailer.calls)
	}
}

func TestDispatcherSkipsEmptyRecipient(t *testing.T) {
	mailer := &LogMailer{}
	d := NewDispatcher(mailer, "studio@example.com")

	d.Run(context.Background(), requests.Request{ID: "req-1"}, []requests.NotificationTask{
		{Kind: requests.NotifyQuote, Recipient: ""},
	})
	if len(mailer.Sent) != 0 {
		t.Errorf("sent = %d, want 0", len(mailer.Sent))
	}
}

func TestFormatFCFA(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0 FCFA"},
		{999, "999 FCFA"},
		{1000, "1 000 FCFA"},
		{500000, "500 000 FCFA"},
		{1234567, "1 234 567 FCFA"},
	}
	for _, c := range cases {
		if got := formatFCFA(c.in); got != c.want {
			t.Errorf("formatFCFA(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
