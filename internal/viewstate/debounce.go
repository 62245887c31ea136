package viewstate

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/staymate/staymate-bff/internal/goroutine"
)

// DefaultDebounce - задержка фильтров с вводом текста.
const DefaultDebounce = 500 * time.Millisecond

// Debouncer хранит два значения: сырое (видно сразу) и отложенное,
// которое меняется только после паузы во вводе и запускает загрузку.
type Debouncer[V comparable] struct {
	clock    clockwork.Clock
	delay    time.Duration
	onSettle func(V)

	mu      sync.Mutex
	raw     V
	settled V
	seq     uint64
	timer   clockwork.Timer
	stopped bool
}

func NewDebouncer[V comparable](clock clockwork.Clock, delay time.Duration, initial V, onSettle func(V)) *Debouncer[V] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer[V]{
		clock:    clock,
		delay:    delay,
		onSettle: onSettle,
		raw:      initial,
		settled:  initial,
	}
}

// Set обновляет сырое значение и перезапускает таймер.
func (d *Debouncer[V]) Set(v V) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.raw = v
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, func() {
		goroutine.Run(func() { d.fire(seq) })
	})
}

func (d *Debouncer[V]) fire(seq uint64) {
	d.mu.Lock()
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	if d.raw == d.settled {
		d.mu.Unlock()
		return
	}
	d.settled = d.raw
	value := d.settled
	d.mu.Unlock()

	if d.onSettle != nil {
		d.onSettle(value)
	}
}

// Flush немедленно фиксирует сырое значение (например, по Enter).
func (d *Debouncer[V]) Flush() {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.fire(seq)
}

func (d *Debouncer[V]) Raw() V {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.raw
}

func (d *Debouncer[V]) Settled() V {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}

// Pending - есть ли значение, ожидающее окончания паузы.
func (d *Debouncer[V]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop отменяет ожидающий таймер; дальнейшие Set игнорируются.
func (d *Debouncer[V]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
