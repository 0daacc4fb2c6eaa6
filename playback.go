package partita

import "sort"

// PlaybackEvent is one timed, velocity- and duration-shaped note. It is the
// single shared contract between playing a song live and serializing it to
// a file, so what is heard and what is written can be compared event by
// event. A full event list is always sorted by tick, ties broken by the
// lexical order of Source, making the timeline deterministic regardless of
// how the staves were iterated.
type PlaybackEvent struct {
	Source        string // identifier of the score event this was generated from
	Part          int    // index of the owning part, for channel mapping
	Tick          int
	Duration      int    // in ticks, >= 1
	Note          int    // pitch number 0-127
	Velocity      int    // 1-127
	TieTo         string // Source of the next note in a tie chain, if any
	Articulations []Articulation
}

// SortEvents sorts the events into the canonical deterministic order: by
// tick ascending, equal ticks ordered by Source.
func SortEvents(events []PlaybackEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Tick != events[j].Tick {
			return events[i].Tick < events[j].Tick
		}
		return events[i].Source < events[j].Source
	})
}
