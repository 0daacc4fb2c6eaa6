package transport

import (
	"sort"
	"sync"
	"time"

	"github.com/ajankelo/partita"
)

type (
	// TempoChange sets the beats-per-minute from an absolute tick onward.
	TempoChange struct {
		Tick int
		BPM  int
	}

	// TempoMap converts absolute ticks to wall-clock offsets across tempo
	// changes. An empty map plays at 120 BPM throughout.
	TempoMap []TempoChange

	// TimerScheduler is a wall-clock Scheduler backed by time.AfterFunc.
	// Ticks are converted to durations through the tempo map, measured
	// from the moment the scheduler was created.
	TimerScheduler struct {
		tempo TempoMap
		base  time.Time

		mu     sync.Mutex
		next   Handle
		timers map[Handle]*time.Timer
	}
)

// TempoMapFromSong walks the resolved measure order of the song's first
// staff and records a change wherever the effective tempo moves.
func TempoMapFromSong(song *partita.Song) TempoMap {
	bpm := song.BPM
	if bpm <= 0 {
		bpm = 120
	}
	ret := TempoMap{{Tick: 0, BPM: bpm}}
	var measures []partita.Measure
	if len(song.Parts) > 0 && len(song.Parts[0].Staves) > 0 {
		measures = song.Parts[0].Staves[0].Measures
	}
	result := partita.Resolve(measures, 0)
	cursor := 0
	for _, visit := range result.Order {
		m := &measures[visit.Measure]
		if m.BPM != 0 && m.BPM != bpm {
			bpm = m.BPM
			ret = append(ret, TempoChange{Tick: cursor, BPM: bpm})
		}
		cursor += m.LengthTicks()
	}
	return ret
}

// Duration returns the wall-clock offset of an absolute tick.
func (tm TempoMap) Duration(tick int) time.Duration {
	changes := make(TempoMap, len(tm))
	copy(changes, tm)
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].Tick < changes[j].Tick })

	bpm := 120
	cursor, total := 0, time.Duration(0)
	for _, c := range changes {
		if c.Tick >= tick {
			break
		}
		if c.Tick > cursor {
			total += ticksDuration(c.Tick-cursor, bpm)
			cursor = c.Tick
		}
		if c.BPM > 0 {
			bpm = c.BPM
		}
	}
	return total + ticksDuration(tick-cursor, bpm)
}

func ticksDuration(ticks, bpm int) time.Duration {
	return time.Duration(ticks) * time.Minute / time.Duration(bpm*partita.TicksPerQuarter)
}

func NewTimerScheduler(tempo TempoMap) *TimerScheduler {
	return &TimerScheduler{
		tempo:  tempo,
		base:   time.Now(),
		timers: make(map[Handle]*time.Timer),
	}
}

func (s *TimerScheduler) Schedule(tick int, fn func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	handle := s.next
	delay := s.tempo.Duration(tick) - time.Since(s.base)
	if delay < 0 {
		delay = 0
	}
	s.timers[handle] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, handle)
		s.mu.Unlock()
		fn()
	})
	return handle
}

func (s *TimerScheduler) Clear(handle Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[handle]; ok {
		timer.Stop()
		delete(s.timers, handle)
	}
}

// Wait blocks until every pending timer has fired or been cleared,
// polling because timers fire on their own goroutines.
func (s *TimerScheduler) Wait() {
	for {
		s.mu.Lock()
		n := len(s.timers)
		s.mu.Unlock()
		if n == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}
