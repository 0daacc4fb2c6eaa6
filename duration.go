package partita

// TicksPerQuarter is the resolution of the shared time base: every duration
// in the performing and encoding code is expressed as a count of these
// ticks, a quarter note being 480 of them.
const TicksPerQuarter = 480

// NoteValue is a symbolic note duration, whole through 64th.
type NoteValue string

const (
	Whole        NoteValue = "whole"
	Half         NoteValue = "half"
	Quarter      NoteValue = "quarter"
	Eighth       NoteValue = "eighth"
	Sixteenth    NoteValue = "16th"
	ThirtySecond NoteValue = "32nd"
	SixtyFourth  NoteValue = "64th"
)

var valueTicks = map[NoteValue]int{
	Whole:        4 * TicksPerQuarter,
	Half:         2 * TicksPerQuarter,
	Quarter:      TicksPerQuarter,
	Eighth:       TicksPerQuarter / 2,
	Sixteenth:    TicksPerQuarter / 4,
	ThirtySecond: TicksPerQuarter / 8,
	SixtyFourth:  TicksPerQuarter / 16,
}

// Ticks converts a symbolic duration into ticks: one dot multiplies the
// base value by 3/2, two dots by 7/4, and a tuplet ratio by Normal/Actual.
// An unknown NoteValue returns 0; the value set is closed, so a 0 from here
// means the caller broke the contract (see Event.Ticks users).
func Ticks(value NoteValue, dots int, tuplet *Tuplet) int {
	t := valueTicks[value]
	switch dots {
	case 1:
		t = t * 3 / 2
	case 2:
		t = t * 7 / 4
	}
	if tuplet != nil && tuplet.Actual > 0 {
		t = t * tuplet.Normal / tuplet.Actual
	}
	return t
}

// Ticks returns the duration of the event in ticks.
func (e *Event) Ticks() int {
	return Ticks(e.Value, e.Dots, e.Tuplet)
}

// LengthTicks returns the total duration of the voice in ticks, the sum of
// its event durations.
func (v *Voice) LengthTicks() int {
	ret := 0
	for i := range v.Events {
		ret += v.Events[i].Ticks()
	}
	return ret
}

// LengthTicks returns the effective length of the measure: the maximum of
// its voice lengths, as all voices of a measure start together and the
// longest one decides when the next measure begins.
func (m *Measure) LengthTicks() int {
	ret := 0
	for i := range m.Voices {
		if l := m.Voices[i].LengthTicks(); l > ret {
			ret = l
		}
	}
	return ret
}
