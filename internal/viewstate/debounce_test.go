package viewstate

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

type settleRecorder struct {
	mu     sync.Mutex
	values []string
}

func (r *settleRecorder) record(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *settleRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestDebouncer_BurstSettlesOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &settleRecorder{}
	d := NewDebouncer(clock, DefaultDebounce, "", rec.record)

	d.Set("Dha")
	clock.Advance(200 * time.Millisecond)
	d.Set("Dhak")
	assert.Equal(t, "Dhak", d.Raw())
	assert.Equal(t, "", d.Settled())
	clock.Advance(200 * time.Millisecond)
	d.Set("Dhaka")
	assert.True(t, d.Pending())

	clock.Advance(DefaultDebounce)
	assert.Eventually(t, func() bool { return len(rec.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"Dhaka"}, rec.all())
	assert.Equal(t, "Dhaka", d.Settled())
	assert.False(t, d.Pending())
}

func TestDebouncer_ReturnToSettledValueDoesNotFire(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &settleRecorder{}
	d := NewDebouncer(clock, time.Second, "Dhaka", rec.record)

	d.Set("Dhak")
	d.Set("Dhaka")
	clock.Advance(time.Second)

	assert.Eventually(t, func() bool { return !d.Pending() }, time.Second, 5*time.Millisecond)
	assert.Empty(t, rec.all())
}

func TestDebouncer_Flush(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &settleRecorder{}
	d := NewDebouncer(clock, time.Second, "", rec.record)

	d.Set("Chittagong")
	d.Flush()
	assert.Equal(t, []string{"Chittagong"}, rec.all())

	clock.Advance(time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []string{"Chittagong"}, rec.all())
}

func TestDebouncer_StopDropsPendingValue(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &settleRecorder{}
	d := NewDebouncer(clock, time.Second, "", rec.record)

	d.Set("Sylhet")
	d.Stop()
	d.Set("Khulna")
	clock.Advance(2 * time.Second)
	time.Sleep(20 * time.Millisecond)

	assert.Empty(t, rec.all())
	assert.Equal(t, "Sylhet", d.Raw())
}
