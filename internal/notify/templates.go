package notify

import (
	"fmt"
	"html"
	"strings"

	"studio-backend/internal/requests"
)

// formatFCFA renders an amount with thousands separators, e.g. "500 000 FCFA".
func formatFCFA(amount float64) string {
	n := int64(amount)
	digits := fmt.Sprintf("%d", n)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)
	return strings.Join(groups, " ") + " FCFA"
}

func quoteEmail(from string, req requests.Request) Email {
	price := 0.0
	if req.FinalPrice != nil {
		price = *req.FinalPrice
	}
	body := fmt.Sprintf(
		"<p>Your project <strong>%s</strong> has been quoted at <strong>%s</strong>.</p><p>%s</p><p>The request is now awaiting payment.</p>",
		html.EscapeString(req.Title),
		formatFCFA(price),
		html.EscapeString(req.PriceJustification),
	)
	return Email{
		To:       req.OwnerEmail,
		From:     from,
		Subject:  fmt.Sprintf("Quote ready: %s", req.Title),
		HTMLBody: body,
	}
}

func responseEmail(from string, req requests.Request) Email {
	body := fmt.Sprintf(
		"<p>There is a new reply on your project <strong>%s</strong>:</p><p>%s</p>",
		html.EscapeString(req.Title),
		html.EscapeString(req.AdminResponse),
	)
	return Email{
		To:       req.OwnerEmail,
		From:     from,
		Subject:  fmt.Sprintf("New reply on %s", req.Title),
		HTMLBody: body,
	}
}

func deliveryEmail(from string, req requests.Request) Email {
	body := fmt.Sprintf(
		"<p>Your project <strong>%s</strong> has been delivered. The final files are available in your account.</p>",
		html.EscapeString(req.Title),
	)
	return Email{
		To:       req.OwnerEmail,
		From:     from,
		Subject:  fmt.Sprintf("Delivered: %s", req.Title),
		HTMLBody: body,
	}
}
