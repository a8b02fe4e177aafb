package requestctx

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerCarriesIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := WithActor(WithRequestID(context.Background(), "req-1"), "tenant-1", "user-1")
	Logger(ctx).Info("hello")

	line := buf.String()
	for _, want := range []string{"requestId=req-1", "tenantId=tenant-1", "userId=user-1"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestEmptyContext(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" {
		t.Fatal("expected no request id")
	}
	if tenant, user := GetActor(ctx); tenant != "" || user != "" {
		t.Fatalf("expected no actor, got %q %q", tenant, user)
	}
}
