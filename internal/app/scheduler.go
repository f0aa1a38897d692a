package app

import (
	"context"
	"log"
	"time"

	"trivia-challenge-service/internal/domain"
)

const weeklyResetHour = 9 // Monday 09:00 local time

const weeklyAnnouncementText = "🎉 New weekly challenge available! " +
	"Take on 5 questions for triple points and exclusive badges."

// StartScheduler launches the weekly-reset task: it sleeps until the next
// Monday 09:00, purges stale weekly sessions, and queues an announcement for
// the notification sink. It does no partial writes, so cancellation at any
// point is safe. Calling it twice is a no-op while the first task runs.
func (s *ChallengeService) StartScheduler(ctx context.Context) {
	s.schedMu.Lock()
	defer s.schedMu.Unlock()
	if s.schedCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.schedCancel = cancel
	s.schedDone = done

	go func() {
		defer close(done)
		s.runScheduler(ctx)
	}()
}

func (s *ChallengeService) runScheduler(ctx context.Context) {
	for {
		wait := time.Until(nextWeeklyReset(s.now()))
		log.Printf("weekly challenge scheduler: sleeping %.1fh until next Monday", wait.Hours())

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.purgeStaleWeekly()
		if s.sink != nil {
			now := s.now()
			s.sink.Announce(domain.Announcement{
				Message:   weeklyAnnouncementText,
				WeekStart: domain.DateOf(now).WeekStart(),
				Timestamp: now,
			})
		}
	}
}

func (s *ChallengeService) stopScheduler() {
	s.schedMu.Lock()
	cancel, done := s.schedCancel, s.schedDone
	s.schedCancel, s.schedDone = nil, nil
	s.schedMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// nextWeeklyReset returns the next Monday 09:00 strictly after now.
func nextWeeklyReset(now time.Time) time.Time {
	daysUntilMonday := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	candidate := time.Date(now.Year(), now.Month(), now.Day(), weeklyResetHour, 0, 0, 0, now.Location()).
		AddDate(0, 0, daysUntilMonday)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// ChannelSink is a buffered NotificationSink whose consumer drains
// announcements at its own pace. The newest payload wins when the buffer is
// full, matching the "latest pending announcement" behavior callers expect.
type ChannelSink struct {
	ch chan domain.Announcement
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan domain.Announcement, buffer)}
}

func (c *ChannelSink) Announce(a domain.Announcement) {
	for {
		select {
		case c.ch <- a:
			return
		default:
			select {
			case <-c.ch:
			default:
			}
		}
	}
}

// Pending returns the channel announcements arrive on.
func (c *ChannelSink) Pending() <-chan domain.Announcement {
	return c.ch
}
