package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func fastOptions() Options {
	return Options{
		Interval:        time.Second,
		DisplayFor:      50 * time.Millisecond,
		AfterGeneration: 20 * time.Millisecond,
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	r := New(Options{}, nil)
	assert.Equal(t, DefaultInterval, r.opts.Interval)
	assert.Equal(t, DefaultDisplayFor, r.opts.DisplayFor)
	assert.Equal(t, DefaultAfterGeneration, r.opts.AfterGeneration)
}

func TestFireOnlyWhenArmed(t *testing.T) {
	r := New(fastOptions(), nil)
	defer r.Stop()

	r.Fire()
	assert.False(t, r.Visible())

	r.Arm(true)
	r.Fire()
	assert.True(t, r.Visible())

	r.Arm(false)
	assert.False(t, r.Visible())
}

func TestAutoDismiss(t *testing.T) {
	r := New(fastOptions(), nil)
	defer r.Stop()

	r.Arm(true)
	r.Fire()
	assert.True(t, r.Visible())
	assert.Eventually(t, func() bool { return !r.Visible() }, time.Second, 10*time.Millisecond)
}

func TestDismiss(t *testing.T) {
	r := New(Options{DisplayFor: time.Hour}, nil)
	defer r.Stop()

	r.Arm(true)
	r.Fire()
	r.Dismiss()
	assert.False(t, r.Visible())
}

func TestScheduleOnce(t *testing.T) {
	opts := fastOptions()
	opts.DisplayFor = time.Hour
	r := New(opts, nil)
	defer r.Stop()

	r.Arm(true)
	r.ScheduleOnce()
	assert.False(t, r.Visible())
	assert.Eventually(t, r.Visible, time.Second, 5*time.Millisecond)
}

func TestPeriodicTick(t *testing.T) {
	opts := fastOptions()
	opts.DisplayFor = time.Hour
	r := New(opts, nil)
	defer r.Stop()

	r.Arm(true)
	r.Start()
	assert.Eventually(t, r.Visible, 3*time.Second, 20*time.Millisecond)
}

func TestStopReleasesEverything(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := New(fastOptions(), nil)
	r.Arm(true)
	r.Start()
	r.ScheduleOnce()
	r.Fire()
	r.Stop()

	assert.False(t, r.Visible())

	// A stopped reminder stays silent.
	r.Arm(true)
	r.Fire()
	r.Start()
	assert.False(t, r.Visible())
	r.Stop()
}
