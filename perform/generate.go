// Package perform turns a score into its deterministic, time-ordered
// performance: it expands the measure traversal of every staff, advances a
// tick cursor through the visited measures and shapes each note's velocity
// and duration according to the dynamics, articulations and hairpins of the
// score.
package perform

import (
	"fmt"

	"github.com/ajankelo/partita"
)

type (
	// Options control a generation call. Expressive enables the
	// articulation, hairpin and accent shaping; in strict mode durations
	// and timings are literal and velocity comes from the dynamics table
	// alone. MaxVisits bounds each staff traversal (0 = default).
	Options struct {
		Expressive bool
		MaxVisits  int
	}

	// Diagnostics reports the traversal of the longest-running staff of
	// the generation, for callers that want to tell a musically normal
	// ending from a safety cutoff. Diagnostic only; the event list is the
	// actual output.
	Diagnostics struct {
		Traversal  partita.TraversalResult
		TotalTicks int
	}
)

// DefaultVelocity is used for notes carrying no dynamic marking.
const DefaultVelocity = 84

// dynamicVelocities is monotonically increasing from ppp to fff.
var dynamicVelocities = map[partita.Dynamic]int{
	"ppp": 20,
	"pp":  34,
	"p":   48,
	"mp":  62,
	"mf":  76,
	"f":   90,
	"ff":  105,
	"fff": 120,
}

// VelocityForDynamic returns the velocity of a dynamic marking, or
// DefaultVelocity if the marking is empty or unknown.
func VelocityForDynamic(d partita.Dynamic) int {
	if v, ok := dynamicVelocities[d]; ok {
		return v
	}
	return DefaultVelocity
}

// Generate walks every staff of every part through its resolved measure
// order and produces the globally sorted playback event list. Each staff
// advances its own tick cursor: a visited measure starts where the previous
// visit ended, the measure's effective length being its longest voice.
// Rests advance the cursor without producing an event. The function is pure;
// it never mutates the song.
func Generate(song *partita.Song, opts Options) ([]partita.PlaybackEvent, Diagnostics, error) {
	var events []partita.PlaybackEvent
	var diag Diagnostics
	for pi := range song.Parts {
		part := &song.Parts[pi]
		for si := range part.Staves {
			staff := &part.Staves[si]
			result := partita.Resolve(staff.Measures, opts.MaxVisits)
			offsets := hairpinOffsets(staff)
			cursor := 0
			staffStart := len(events)
			var refs []tieRef
			for _, visit := range result.Order {
				m := &staff.Measures[visit.Measure]
				for vi := range m.Voices {
					tick := cursor
					for ei := range m.Voices[vi].Events {
						ev := &m.Voices[vi].Events[ei]
						d := ev.Ticks()
						if d == 0 {
							return nil, diag, fmt.Errorf("part %q staff %v measure %v voice %v event %v has no duration-bearing value (%q)",
								part.Name, si, visit.Measure, vi, ei, ev.Value)
						}
						if !ev.Rest {
							pe := shapeNote(ev, tick, d, opts.Expressive, offsets[noteKey{visit.Measure, vi, ei}])
							pe.Part = pi
							pe.Source = sourceID(ev, pi, si, visit.Measure, vi, ei, visit.Pass)
							events = append(events, pe)
							refs = append(refs, tieRef{id: ev.ID, start: tick, end: tick + d})
						}
						tick += d
					}
				}
				cursor += m.LengthTicks()
			}
			resolveTies(events[staffStart:], refs)
			if cursor >= diag.TotalTicks {
				diag.TotalTicks = cursor
				diag.Traversal = result
			}
		}
	}
	partita.SortEvents(events)
	return events, diag, nil
}

// shapeNote computes the velocity, duration and onset of a single note. In
// expressive mode the articulations apply in a fixed order (staccato,
// tenuto, accent) and compose when more than one is present; the hairpin
// offset is added last, before clamping velocity to 1..127 and flooring
// duration at one tick.
func shapeNote(ev *partita.Event, tick, duration int, expressive bool, hairpinOffset int) partita.PlaybackEvent {
	velocity := DefaultVelocity
	if ev.Dynamic != "" {
		velocity = VelocityForDynamic(ev.Dynamic)
	}
	if expressive {
		d := float64(duration)
		if hasArticulation(ev, partita.Staccato) {
			d *= 0.55
		}
		if hasArticulation(ev, partita.Tenuto) {
			d *= 1.08
			tick -= 2
		}
		if hasArticulation(ev, partita.Accent) {
			velocity += 10
		}
		duration = int(d)
		velocity += hairpinOffset
		if tick < 0 {
			tick = 0
		}
	}
	if duration < 1 {
		duration = 1
	}
	if velocity < 1 {
		velocity = 1
	}
	if velocity > 127 {
		velocity = 127
	}
	return partita.PlaybackEvent{
		Tick:          tick,
		Duration:      duration,
		Note:          ev.Pitch.Number(),
		Velocity:      velocity,
		TieTo:         ev.TieTo,
		Articulations: ev.Articulations,
	}
}

func hasArticulation(ev *partita.Event, a partita.Articulation) bool {
	for _, x := range ev.Articulations {
		if x == a {
			return true
		}
	}
	return false
}

// sourceID is the identifier carried by a playback event. Score events with
// an explicit ID keep it; anonymous events get a synthesized position ID,
// zero padded so that lexical order follows document order. A measure inside
// a repeat is visited more than once and every visit emits its own events,
// so revisits carry the traversal pass as a suffix to keep Sources unique.
func sourceID(ev *partita.Event, part, staff, measure, voice, index, pass int) string {
	base := ev.ID
	if base == "" {
		base = fmt.Sprintf("p%02d.s%d.m%04d.v%d.e%03d", part, staff, measure, voice, index)
	}
	if pass > 1 {
		return fmt.Sprintf("%s.r%d", base, pass)
	}
	return base
}

// tieRef carries, per emitted note, the score ID and the unshaped tick span
// the note occupies on the grid. Tie links are matched on the grid, not on
// the shaped span, so articulation shaping cannot break a chain.
type tieRef struct {
	id         string
	start, end int
}

// resolveTies rewrites the tie links of one staff's events from score IDs
// to playback Sources. The score ID of a note inside a repeat names every
// visit of that note, so the link picks the occurrence that starts on the
// grid exactly where the tied note ends; a tie with no such continuation is
// dropped rather than left dangling into another pass.
func resolveTies(events []partita.PlaybackEvent, refs []tieRef) {
	byID := make(map[string][]int)
	for i, r := range refs {
		if r.id != "" {
			byID[r.id] = append(byID[r.id], i)
		}
	}
	for i := range events {
		tie := events[i].TieTo
		if tie == "" {
			continue
		}
		events[i].TieTo = ""
		for _, j := range byID[tie] {
			if refs[j].start == refs[i].end {
				events[i].TieTo = events[j].Source
				break
			}
		}
	}
}
