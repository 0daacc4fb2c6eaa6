// Package transport adapts a host-provided scheduling capability into a
// play/pause/stop surface over playback events. The adapter owns the list
// of pending schedule handles; the timing source itself is injected, never
// owned, so tests can drive it with a virtual clock.
package transport

import (
	"sync"

	"github.com/ajankelo/partita"
)

type (
	// Handle identifies one pending callback registered with a Scheduler.
	Handle int

	// Scheduler is the timing capability the host must provide: register a
	// callback to fire at an absolute tick, or cancel it before it fires.
	Scheduler interface {
		Schedule(tick int, fn func()) Handle
		Clear(handle Handle)
	}

	// EventSink receives the callbacks as they fire.
	EventSink interface {
		NoteOn(ev partita.PlaybackEvent)
		NoteOff(ev partita.PlaybackEvent)
		Click()
	}

	// State is the transport state machine: stopped to playing to paused
	// and back. Paused can only return to playing or stopped; stopped is
	// reachable from any state.
	State int

	// Loop restricts playback to events whose tick falls in [Start, End).
	Loop struct {
		Start   int
		End     int
		Enabled bool
	}

	// Transport drives an event list through a Scheduler. A wall-clock
	// scheduler fires callbacks on its own goroutines, so the handle
	// bookkeeping is guarded by a mutex; the sink must tolerate being
	// called from the scheduler's goroutines.
	Transport struct {
		scheduler Scheduler
		sink      EventSink
		events    []partita.PlaybackEvent

		mu        sync.Mutex
		state     State
		loop      Loop
		countIn   int
		metronome bool
		pending   []*pendingCallback
	}

	pendingCallback struct {
		tick   int
		fn     func()
		handle Handle
		fired  bool
	}
)

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}

func New(scheduler Scheduler, sink EventSink, events []partita.PlaybackEvent) *Transport {
	return &Transport{scheduler: scheduler, sink: sink, events: events}
}

func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetLoop replaces the loop window. It takes effect on the next Play.
func (t *Transport) SetLoop(loop Loop) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loop = loop
}

// SetCountInBeats sets how many beats of 480 ticks precede the first event
// on Play. Zero disables the count-in.
func (t *Transport) SetCountInBeats(beats int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.countIn = beats
}

// SetMetronomeEnabled controls whether the count-in window emits clicks.
func (t *Transport) SetMetronomeEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metronome = enabled
}

// Play computes the absolute schedule and registers every callback with
// the scheduler: one click per count-in beat when the metronome is on,
// then a note-on and note-off per event, offset by the count-in length.
// Resuming from paused reschedules only the callbacks that have not fired.
func (t *Transport) Play() {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case StatePlaying:
		return
	case StatePaused:
		for _, p := range t.pending {
			if !p.fired {
				p.handle = t.scheduler.Schedule(p.tick, p.fn)
			}
		}
		t.state = StatePlaying
		return
	}
	offset := t.countIn * partita.TicksPerQuarter
	if t.metronome {
		for beat := 0; beat < t.countIn; beat++ {
			t.add(beat*partita.TicksPerQuarter, t.sink.Click)
		}
	}
	for _, ev := range t.events {
		if t.loop.Enabled && (ev.Tick < t.loop.Start || ev.Tick >= t.loop.End) {
			continue
		}
		ev := ev
		t.add(ev.Tick+offset, func() { t.sink.NoteOn(ev) })
		t.add(ev.Tick+ev.Duration+offset, func() { t.sink.NoteOff(ev) })
	}
	t.state = StatePlaying
}

// add registers one callback; the caller holds the mutex. The wrapper
// marks the entry fired under the same mutex before invoking the sink,
// and fires at most once: a callback already in flight during a pause
// would otherwise run again after a resume reschedules it.
func (t *Transport) add(tick int, fn func()) {
	p := &pendingCallback{tick: tick}
	p.fn = func() {
		t.mu.Lock()
		if p.fired {
			t.mu.Unlock()
			return
		}
		p.fired = true
		t.mu.Unlock()
		fn()
	}
	p.handle = t.scheduler.Schedule(tick, p.fn)
	t.pending = append(t.pending, p)
}

// Pause cancels every pending handle but keeps the schedule, so a later
// Play resumes without replaying callbacks that already fired. Only a
// playing transport can pause.
func (t *Transport) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StatePlaying {
		return
	}
	t.clearPending()
	t.state = StatePaused
}

// Stop cancels every pending handle and discards the schedule. Position
// reset is the caller's responsibility.
func (t *Transport) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateStopped {
		return
	}
	t.clearPending()
	t.pending = nil
	t.state = StateStopped
}

func (t *Transport) clearPending() {
	for _, p := range t.pending {
		if !p.fired {
			t.scheduler.Clear(p.handle)
		}
	}
}
