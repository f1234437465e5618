package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/iwangdonghui/tsconv-sub005/internal/core/domain"
)

func records(n int) []*domain.FailureRecord {
	out := make([]*domain.FailureRecord, n)
	for i := range out {
		out[i] = &domain.FailureRecord{ID: fmt.Sprintf("r%d", i)}
	}
	return out
}

func TestArchiveRepo_RoundTrip(t *testing.T) {
	repo := NewArchiveRepo(10)
	ctx := context.Background()

	if err := repo.Archive(ctx, records(3)); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 records, got %d", n)
	}

	recent, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	// Newest first.
	if recent[0].ID != "r2" || recent[1].ID != "r1" {
		t.Errorf("expected [r2 r1], got [%s %s]", recent[0].ID, recent[1].ID)
	}
}

func TestArchiveRepo_BoundedCapacity(t *testing.T) {
	repo := NewArchiveRepo(5)
	ctx := context.Background()

	if err := repo.Archive(ctx, records(8)); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	n, _ := repo.Count(ctx)
	if n != 5 {
		t.Errorf("expected capacity 5 enforced, got %d", n)
	}

	recent, _ := repo.Recent(ctx, 0)
	if recent[0].ID != "r7" {
		t.Errorf("expected newest record kept, got %s", recent[0].ID)
	}
	if recent[len(recent)-1].ID != "r3" {
		t.Errorf("expected oldest surviving record r3, got %s", recent[len(recent)-1].ID)
	}
}

func TestArchiveRepo_DefaultCapacity(t *testing.T) {
	repo := NewArchiveRepo(0)
	if err := repo.Archive(context.Background(), records(2)); err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if n, _ := repo.Count(context.Background()); n != 2 {
		t.Errorf("expected 2 records, got %d", n)
	}
}
