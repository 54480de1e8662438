package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock gives the tests deterministic control over elapsed time
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestDetector() (*ShortcutDetector, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	d := NewShortcutDetector(300*time.Millisecond, 500*time.Millisecond)
	d.clock = clock.Now
	return d, clock
}

func TestShortcutDetector_FastVArmsFlag(t *testing.T) {
	d, clock := newTestDetector()
	defer d.Stop()

	d.ObserveInsert("c")
	clock.Advance(100 * time.Millisecond)
	d.ObserveInsert("v")

	assert.True(t, d.Active())
}

func TestShortcutDetector_SlowVDoesNotArm(t *testing.T) {
	d, clock := newTestDetector()
	defer d.Stop()

	d.ObserveInsert("c")
	clock.Advance(450 * time.Millisecond)
	d.ObserveInsert("v")

	assert.False(t, d.Active())
}

func TestShortcutDetector_VWithNoPriorKeystroke(t *testing.T) {
	d, _ := newTestDetector()
	defer d.Stop()

	d.ObserveInsert("v")

	assert.False(t, d.Active())
}

func TestShortcutDetector_FlagExpires(t *testing.T) {
	d, clock := newTestDetector()
	defer d.Stop()

	d.ObserveInsert("x")
	clock.Advance(50 * time.Millisecond)
	d.ObserveInsert("v")
	assert.True(t, d.Active())

	clock.Advance(499 * time.Millisecond)
	assert.True(t, d.Active())

	clock.Advance(2 * time.Millisecond)
	assert.False(t, d.Active())
}

func TestShortcutDetector_MultiCharInsertIsNotAKeystroke(t *testing.T) {
	d, clock := newTestDetector()
	defer d.Stop()

	d.ObserveInsert("pasted block of text")
	clock.Advance(50 * time.Millisecond)
	d.ObserveInsert("v")

	// The bulk insert did not update the keystroke clock, so the fast
	// `v` has no preceding keystroke to compare against.
	assert.False(t, d.Active())
}

func TestShortcutDetector_SinceLastKey(t *testing.T) {
	d, clock := newTestDetector()
	defer d.Stop()

	assert.Equal(t, time.Duration(-1), d.SinceLastKey())

	d.ObserveInsert("a")
	clock.Advance(120 * time.Millisecond)
	assert.Equal(t, 120*time.Millisecond, d.SinceLastKey())
}
