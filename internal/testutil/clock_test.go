// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"testing"
	"time"
)

func TestFakeClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clock := NewFakeClock(start, time.Second)

	if got := clock.Now(); !got.Equal(start) {
		t.Errorf("first Now() = %v, want %v", got, start)
	}
	if got := clock.Now(); !got.Equal(start.Add(time.Second)) {
		t.Errorf("second Now() = %v, want one step later", got)
	}

	clock.Advance(time.Minute)
	if got, want := clock.Now(), start.Add(2*time.Second+time.Minute); !got.Equal(want) {
		t.Errorf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeClock_DefaultStart(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{}, 0)
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := clock.Now(); !got.Equal(want) || !clock.Now().Equal(want) {
		t.Errorf("Now() = %v, want a fixed %v", got, want)
	}
}
