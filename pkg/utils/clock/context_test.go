package clock_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/ticketsync/pkg/utils/clock"
)

func TestClock(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	ctx := clock.With(context.Background(), clock.Fixed(now))

	gt.Equal(t, clock.Now(ctx), now)
	gt.Equal(t, clock.Since(ctx, now.Add(-time.Minute)), time.Minute)
}

func TestClock_Default(t *testing.T) {
	before := time.Now()
	got := clock.Now(context.Background())
	gt.False(t, got.Before(before))
}
