package db

import (
	"context"
	"strings"
	"testing"
)

func TestNewRejectsMalformedDSN(t *testing.T) {
	_, err := New(context.Background(), "host=localhost port=notanumber dbname=cardmint")
	if err == nil {
		t.Fatal("expected error for malformed DSN")
	}
	if !strings.Contains(err.Error(), "platform/db: parse config") {
		t.Fatalf("expected parse config error, got: %v", err)
	}
}
