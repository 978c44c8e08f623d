package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryClaim(t *testing.T) {
	s := NewMemory(time.Hour)
	ctx := context.Background()

	ref, claimed, err := s.Claim(ctx, "key-1", "REF-A")
	if err != nil || !claimed || ref != "REF-A" {
		t.Fatalf("first claim: ref=%q claimed=%v err=%v", ref, claimed, err)
	}
	ref, claimed, err = s.Claim(ctx, "key-1", "REF-B")
	if err != nil || claimed || ref != "REF-A" {
		t.Fatalf("second claim: ref=%q claimed=%v err=%v", ref, claimed, err)
	}

	if err := s.Release(ctx, "key-1"); err != nil {
		t.Fatal(err)
	}
	if _, claimed, _ := s.Claim(ctx, "key-1", "REF-C"); !claimed {
		t.Fatal("released key should be claimable")
	}
}

func TestMemoryClaimExpires(t *testing.T) {
	s := NewMemory(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if _, claimed, _ := s.Claim(context.Background(), "k", "REF-1"); !claimed {
		t.Fatal("expected claim")
	}
	now = now.Add(2 * time.Minute)
	ref, claimed, _ := s.Claim(context.Background(), "k", "REF-2")
	if !claimed || ref != "REF-2" {
		t.Fatalf("expired key not reclaimed: %q %v", ref, claimed)
	}
}
