package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndRecent(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	base := time.Date(2025, 9, 15, 20, 0, 0, 0, time.UTC)
	if err := db.Record(ctx, Entry{RunID: "r1", Mode: "daily", Channel: "C1", Kind: "post", Ref: "1.2", CreatedAt: base}); err != nil {
		t.Fatal(err)
	}
	at := base.Add(time.Hour)
	if err := db.Record(ctx, Entry{RunID: "r2", Mode: "weekly", Channel: "C2", Kind: "schedule", Ref: "Q1", PostAt: at, CreatedAt: base.Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}
	got, err := db.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].RunID != "r2" || got[1].RunID != "r1" {
		t.Fatalf("order: %+v", got)
	}
	if !got[0].PostAt.Equal(at) || !got[1].PostAt.IsZero() {
		t.Fatalf("post_at: %v %v", got[0].PostAt, got[1].PostAt)
	}
	if one, _ := db.Recent(ctx, 1); len(one) != 1 {
		t.Fatalf("limit ignored: %d", len(one))
	}
}

func TestReopenFileKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Record(context.Background(), Entry{RunID: "r1", Mode: "monthly", Channel: "C1", Kind: "post"}); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	got, err := db.Recent(context.Background(), 5)
	if err != nil || len(got) != 1 || got[0].Mode != "monthly" {
		t.Fatalf("got %+v err=%v", got, err)
	}
}
