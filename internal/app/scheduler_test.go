package app

import (
	"context"
	"testing"
	"time"

	"trivia-challenge-service/internal/domain"
)

func TestNextWeeklyReset(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			"midweek",
			time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC), // Wednesday
			time.Date(2025, 6, 23, 9, 0, 0, 0, time.UTC),
		},
		{
			"monday before reset",
			time.Date(2025, 6, 23, 8, 59, 0, 0, time.UTC),
			time.Date(2025, 6, 23, 9, 0, 0, 0, time.UTC),
		},
		{
			"monday at reset rolls a full week",
			time.Date(2025, 6, 23, 9, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 30, 9, 0, 0, 0, time.UTC),
		},
		{
			"sunday",
			time.Date(2025, 6, 22, 23, 0, 0, 0, time.UTC),
			time.Date(2025, 6, 23, 9, 0, 0, 0, time.UTC),
		},
	}
	for _, c := range cases {
		if got := nextWeeklyReset(c.now); !got.Equal(c.want) {
			t.Errorf("%s: nextWeeklyReset(%v) = %v, want %v", c.name, c.now, got, c.want)
		}
	}
}

func TestChannelSinkNewestWins(t *testing.T) {
	sink := NewChannelSink(1)

	first := domain.Announcement{Message: "first"}
	second := domain.Announcement{Message: "second"}
	sink.Announce(first)
	sink.Announce(second) // buffer full: the older payload is dropped

	got := <-sink.Pending()
	if got.Message != "second" {
		t.Fatalf("expected newest announcement to win, got %q", got.Message)
	}
	select {
	case extra := <-sink.Pending():
		t.Fatalf("expected empty sink, got %q", extra.Message)
	default:
	}
}

func TestStopSchedulerNeverStarted(t *testing.T) {
	s := NewChallengeService(nil, nil, nil)
	// Must not panic or block.
	s.Shutdown()
	s.Shutdown()
}

func TestSchedulerStartStop(t *testing.T) {
	s := NewChallengeService(nil, nil, NewChannelSink(1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.StartScheduler(ctx)
	s.StartScheduler(ctx) // second start is a no-op while the first runs

	done := make(chan struct{})
	go func() {
		s.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not stop the scheduler")
	}
}
