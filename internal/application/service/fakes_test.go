package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// virtualTicker is a TickScheduler driven by Advance instead of the wall clock.
type virtualTicker struct {
	mu      sync.Mutex
	now     time.Time
	nextID  cron.EntryID
	entries map[cron.EntryID]*virtualEntry
	added   int
	removed int
}

type virtualEntry struct {
	interval time.Duration
	next     time.Time
	job      func()
}

func newVirtualTicker() *virtualTicker {
	return &virtualTicker{now: epoch, entries: map[cron.EntryID]*virtualEntry{}}
}

func (v *virtualTicker) Every(interval time.Duration, cmd func()) (cron.EntryID, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextID++
	v.added++
	v.entries[v.nextID] = &virtualEntry{interval: interval, next: v.now.Add(interval), job: cmd}
	return v.nextID, nil
}

func (v *virtualTicker) RemoveJob(id cron.EntryID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.entries[id]; ok {
		v.removed++
	}
	delete(v.entries, id)
}

func (v *virtualTicker) NextRun(id cron.EntryID) time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	if e, ok := v.entries[id]; ok {
		return e.next
	}
	return time.Time{}
}

func (v *virtualTicker) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *virtualTicker) Active() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// Advance moves virtual time forward by d, running every job that becomes due in order.
// Jobs run without the lock held so the scheduler may add or remove entries meanwhile.
func (v *virtualTicker) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()

	for {
		v.mu.Lock()
		var due *virtualEntry
		ids := make([]cron.EntryID, 0, len(v.entries))
		for id := range v.entries {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			e := v.entries[id]
			if e.next.After(target) {
				continue
			}
			if due == nil || e.next.Before(due.next) {
				due = e
			}
		}
		if due == nil {
			v.now = target
			v.mu.Unlock()
			return
		}
		v.now = due.next
		due.next = due.next.Add(due.interval)
		job := due.job
		v.mu.Unlock()
		job()
	}
}

type emission struct {
	sequence int
	message  string
}

// recordingSink stores every emission and can be told to fail.
type recordingSink struct {
	mu     sync.Mutex
	emits  []emission
	failFn func(sequence int) error
}

func (r *recordingSink) Emit(ctx context.Context, sequence int, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emits = append(r.emits, emission{sequence: sequence, message: message})
	if r.failFn != nil {
		return r.failFn(sequence)
	}
	return nil
}

func (r *recordingSink) Emissions() []emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]emission, len(r.emits))
	copy(out, r.emits)
	return out
}

type panickingSink struct{}

func (panickingSink) Emit(ctx context.Context, sequence int, message string) error {
	panic("sink exploded")
}

// memorySettings is an in-memory SettingReader.
type memorySettings struct {
	mu     sync.Mutex
	values map[string]string
	err    error
	block  chan struct{}
	reads  atomic.Int32
}

func (m *memorySettings) Read(ctx context.Context, key string) (string, bool, error) {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
	defer m.reads.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memorySettings) Write(ctx context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

func (m *memorySettings) Close() error { return nil }

type countingLifecycle struct {
	disables atomic.Int32
	denials  atomic.Int32
}

func (c *countingLifecycle) OnDisableRequested() { c.disables.Add(1) }

func (c *countingLifecycle) OnStartupPermissionDenied(err error) { c.denials.Add(1) }

// explodingTicker panics when a cadence is armed.
type explodingTicker struct {
	*virtualTicker
}

func (explodingTicker) Every(interval time.Duration, cmd func()) (cron.EntryID, error) {
	panic("timer backend exploded")
}
