package auth

import (
	"strings"
	"testing"
	"time"
)

func TestStateStoreConsumeOnce(t *testing.T) {
	store := newStateStore()
	store.put("state-1", time.Now().Add(time.Minute))

	if !store.consume("state-1") {
		t.Error("first consume = false, want true")
	}
	if store.consume("state-1") {
		t.Error("second consume = true, want false")
	}
}

func TestStateStoreExpiry(t *testing.T) {
	store := newStateStore()
	store.put("state-1", time.Now().Add(-time.Second))
	if store.consume("state-1") {
		t.Error("expired state consumed")
	}
}

func TestAppendToken(t *testing.T) {
	got, err := appendToken("https://app.example.com/auth?next=%2Fdashboard", "jwt-abc")
	if err != nil {
		t.Fatalf("appendToken: %v", err)
	}
	if !strings.Contains(got, "token=jwt-abc") {
		t.Errorf("url = %q, missing token", got)
	}
	if !strings.Contains(got, "next=%2Fdashboard") {
		t.Errorf("url = %q, dropped existing query", got)
	}

	if _, err := appendToken("", "jwt"); err == nil {
		t.Error("empty redirect url accepted")
	}
}
