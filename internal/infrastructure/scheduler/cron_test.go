package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	if err := Validate("0 6 * * *"); err != nil {
		t.Fatalf("expected valid expression, got %v", err)
	}
	if err := Validate("@hourly"); err != nil {
		t.Fatalf("expected descriptor to be valid, got %v", err)
	}
	for _, bad := range []string{"", "61 * * * *", "* * * *", "0 0 6 * * *"} {
		if err := Validate(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestAdd(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	s := NewCronScheduler(loc, nil)
	if err := s.Add("0 6 * * *", func(time.Time) {}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if err := s.Add("bogus", func(time.Time) {}); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if err := s.Add("0 6 * * *", nil); err == nil {
		t.Fatal("expected error for nil job")
	}
	if s.Entries() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Entries())
	}
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler(time.UTC, nil)
	fired := make(chan time.Time, 1)
	if err := s.Add("@every 1s", func(at time.Time) {
		select {
		case fired <- at:
		default:
		}
	}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if s.Next().IsZero() {
		t.Fatal("expected a scheduled activation")
	}

	select {
	case at := <-fired:
		if at.Location() != time.UTC {
			t.Fatalf("expected UTC fire time, got %v", at.Location())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("job did not fire")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("second Stop returned error: %v", err)
	}
}
