package audit

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestMemoryRecorderKeepsNewest(t *testing.T) {
	rec := NewMemoryRecorder(2)
	for _, id := range []string{"a", "b", "c"} {
		if err := rec.Record(context.Background(), Record{SessionID: id}); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}
	got := rec.Records()
	if len(got) != 2 || got[0].SessionID != "b" || got[1].SessionID != "c" {
		t.Fatalf("unexpected records %+v", got)
	}
}

func TestNopRecorder(t *testing.T) {
	if err := (NopRecorder{}).Record(context.Background(), Record{}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestPostgresRecorderRoundTrip(t *testing.T) {
	dsn := os.Getenv("CABINET_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CABINET_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pg, err := NewPostgresRecorder(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pg.Close()

	want := Record{
		SessionID: "sess-" + time.Now().Format("150405.000000"),
		Path:      []string{"triage_agent", "cabinet_agent"},
		ToolCalls: []ToolCall{{Agent: "cabinet_agent", Tool: "add_liquor"}},
		Outcome:   "success",
		HasToken:  true,
		Subject:   "user-7",
		StartedAt: time.Now().UTC(),
		Duration:  42 * time.Millisecond,
	}
	if err := pg.Record(ctx, want); err != nil {
		t.Fatalf("Record: %v", err)
	}
	recent, err := pg.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	for _, got := range recent {
		if got.SessionID == want.SessionID {
			if len(got.Path) != 2 || got.ToolCalls[0].Tool != "add_liquor" || got.Duration != want.Duration || got.Subject != "user-7" {
				t.Fatalf("unexpected round trip %+v", got)
			}
			return
		}
	}
	t.Fatalf("record %s not found", want.SessionID)
}
