package partita

type (
	// MeasureVisit is one occurrence of a measure in linear performance
	// order. Pass increments on every repeat expansion or jump; it tells
	// revisits of the same measure apart.
	MeasureVisit struct {
		Measure int
		Pass    int
	}

	// TraversalResult is the linear visitation order of a staff's measures
	// plus the reason the traversal ended. Immutable once returned; all
	// traversal anomalies surface through TerminatedBy, never as errors.
	TraversalResult struct {
		Order        []MeasureVisit
		TerminatedBy Termination
	}

	// Termination tells how a traversal ended: by running past the last
	// measure, by a Fine marker after a jump, or by the safety guard
	// cutting off a repeat graph that would not terminate.
	Termination int

	// travState is the full state of the traversal machine between steps.
	// It is a value, not a pointer: every transition takes a state and
	// returns the next one, so there is no mutable aliasing across calls.
	travState struct {
		index   int
		pass    int
		begin   int // most recent repeatStart index; repeats jump back here
		window  voltaWindow
		jumped  bool // a DC/DS has fired; Fine markers are now terminal
		dcTaken bool
		dsTaken bool
	}

	// voltaWindow is the measure range of an active second pass: volta 1
	// measures inside it are suppressed.
	voltaWindow struct {
		start, end int
		active     bool
	}

	span struct{ start, end int }
)

const (
	EndOfScore Termination = iota
	FineReached
	SafetyLimit
)

func (t Termination) String() string {
	switch t {
	case EndOfScore:
		return "end of score"
	case FineReached:
		return "fine"
	case SafetyLimit:
		return "safety limit"
	}
	return "unknown"
}

// DefaultMaxVisits bounds a single traversal when the caller does not give
// a limit of its own.
const DefaultMaxVisits = 2048

func (s travState) repeatTo(target int) travState {
	s.window = voltaWindow{start: target, end: s.index, active: true}
	s.pass++
	s.index = target
	return s
}

func (s travState) jumpTo(target int) travState {
	s.window = voltaWindow{}
	s.pass++
	s.jumped = true
	s.index = target
	return s
}

func (s travState) skips(m *Measure) bool {
	return s.window.active && m.Volta == 1 && s.index >= s.window.start && s.index <= s.window.end
}

// Resolve expands the repeat marks, first/second endings and DC/DS/Fine
// navigation of an ordered measure list into a linear visitation order. The
// machine walks a cursor left to right, jumping backwards on repeats and
// navigation markers; maxVisits (DefaultMaxVisits if <= 0) bounds the total
// work so a malformed repeat graph (e.g. a measure flagged both repeatStart
// and repeatEnd on itself, which re-arms forever) terminates with
// SafetyLimit instead of looping. DC and DS each fire at most once per
// traversal; this keeps the machine terminating without cycle detection,
// at the cost of not handling multiple independent Fine targets.
func Resolve(measures []Measure, maxVisits int) TraversalResult {
	if maxVisits <= 0 {
		maxVisits = DefaultMaxVisits
	}
	order := []MeasureVisit{}
	// repeated ranges are keyed by their (start, end) index span. A
	// zero-length span can never be marked done: it is exactly the
	// pathological graph the safety guard exists for.
	repeated := make(map[span]bool)
	st := travState{pass: 1}
	steps := 0
	for st.index < len(measures) {
		m := &measures[st.index]
		if st.skips(m) {
			st.index++
			continue
		}
		steps++
		if steps > maxVisits {
			return TraversalResult{Order: order, TerminatedBy: SafetyLimit}
		}
		order = append(order, MeasureVisit{Measure: st.index, Pass: st.pass})
		if st.jumped && m.Marker == MarkerFine {
			return TraversalResult{Order: order, TerminatedBy: FineReached}
		}
		if m.RepeatStart {
			st.begin = st.index
		}
		if m.RepeatEnd {
			r := span{start: st.begin, end: st.index}
			if r.start < r.end && repeated[r] {
				// second pass done; repeats execute exactly once
				st.window = voltaWindow{}
			} else {
				if r.start < r.end {
					repeated[r] = true
				}
				steps += 2 // the expansion and the jump both count against the guard
				st = st.repeatTo(r.start)
				continue
			}
		}
		if m.Marker == MarkerDC && !st.dcTaken {
			st.dcTaken = true
			steps++
			st = st.jumpTo(0)
			continue
		}
		if m.Marker == MarkerDS && st.index > 0 && !st.dsTaken {
			st.dsTaken = true
			steps++
			st = st.jumpTo(nearestSign(measures, st.index))
			continue
		}
		st.index++
	}
	return TraversalResult{Order: order, TerminatedBy: EndOfScore}
}

// nearestSign returns the index of the closest DS-flagged measure before
// from, falling back to the start of the score if there is none.
func nearestSign(measures []Measure, from int) int {
	for i := from - 1; i >= 0; i-- {
		if measures[i].Marker == MarkerDS {
			return i
		}
	}
	return 0
}
