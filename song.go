package partita

import (
	"errors"
	"fmt"
)

type (
	// Song is the root of the score data model: a list of Parts plus the
	// initial tempo in quarter notes per minute and the optional per-part
	// channel/program mappings used when performing or exporting the song.
	// The song is assumed structurally valid by the performing and encoding
	// code; Validate catches the gross errors when a song is loaded from a
	// file.
	Song struct {
		Title    string `yaml:",omitempty"`
		BPM      int
		Parts    []Part
		Mappings map[string]ChannelMapping `yaml:",omitempty"`
	}

	// Part is one instrument of the score, with one or more staves (e.g. a
	// piano part has two). Percussion marks the part for the percussion
	// channel convention when mapped to a channel.
	Part struct {
		Name       string
		Percussion bool `yaml:",omitempty"`
		Staves     []Staff
	}

	// Staff is an ordered list of measures. Different staves may have
	// different measure/repeat structure (e.g. a pickup staff), so each
	// staff is traversed independently when performing.
	Staff struct {
		Clef     string `yaml:",omitempty"`
		Measures []Measure
	}

	// Measure carries the per-measure attributes and the polyphonic voices.
	// Time, Key and BPM are changes taking effect at the start of this
	// measure; nil/zero means the previous value carries over. The repeat,
	// volta and marker flags drive the measure traversal; see Resolve.
	Measure struct {
		Time        *TimeSignature `yaml:",omitempty"`
		Key         *KeySignature  `yaml:",omitempty"`
		BPM         int            `yaml:",omitempty"`
		RepeatStart bool           `yaml:",omitempty"`
		RepeatEnd   bool           `yaml:",omitempty"`
		Volta       int            `yaml:",omitempty"` // 0 = none, 1 = first ending, 2 = second ending
		Marker      Marker         `yaml:",omitempty"`
		Voices      []Voice
	}

	// Voice is one rhythmic line within a measure. Voices of a measure share
	// a start tick; the measure's effective length is the longest voice.
	Voice struct {
		Events []Event
	}

	// Event is a note or a rest. Ties and hairpins reference other events by
	// ID rather than by pointer, so the model stays an acyclic tree; the
	// consumers build an ID lookup per call when they need to follow the
	// references.
	Event struct {
		ID            string         `yaml:",omitempty"`
		Rest          bool           `yaml:",omitempty"`
		Pitch         Pitch          `yaml:",omitempty"`
		Value         NoteValue
		Dots          int            `yaml:",omitempty"`
		Tuplet        *Tuplet        `yaml:",omitempty"`
		TieTo         string         `yaml:",omitempty"` // ID of the next note in the tie chain
		Dynamic       Dynamic        `yaml:",omitempty"`
		Articulations []Articulation `yaml:",flow,omitempty"`
		Hairpin       *Hairpin       `yaml:",omitempty"`
	}

	// Pitch is a spelled pitch: step letter C..B, chromatic alteration in
	// semitones (-1 flat, +1 sharp) and scientific octave (C4 = middle C).
	Pitch struct {
		Step   string
		Alter  int `yaml:",omitempty"`
		Octave int
	}

	// Tuplet scales the nominal duration by Normal/Actual, e.g. a triplet
	// eighth is {Actual: 3, Normal: 2}.
	Tuplet struct {
		Actual int
		Normal int
	}

	// Hairpin is a crescendo or diminuendo starting at the note carrying it
	// and ending at the note with ID To.
	Hairpin struct {
		To   string
		Kind HairpinKind
	}

	TimeSignature struct {
		Numerator   int
		Denominator int
	}

	// KeySignature is the signed count of sharps (positive) or flats
	// (negative) on the circle of fifths, plus the mode.
	KeySignature struct {
		Fifths int
		Minor  bool `yaml:",omitempty"`
	}

	// ChannelMapping assigns a part to a channel (0-15) and program (0-127).
	// Parts without an explicit mapping get a default from DefaultMapping.
	ChannelMapping struct {
		Channel int
		Program int
	}

	// Marker is a navigation marker on a measure: da capo, dal segno, fine
	// or coda.
	Marker string

	// Dynamic is a dynamic marking attached to a note, ppp through fff.
	Dynamic string

	// Articulation is a per-note articulation mark.
	Articulation string

	HairpinKind string
)

const (
	MarkerDC   Marker = "dc"
	MarkerDS   Marker = "ds"
	MarkerFine Marker = "fine"
	MarkerCoda Marker = "coda"
)

const (
	Staccato Articulation = "staccato"
	Tenuto   Articulation = "tenuto"
	Accent   Articulation = "accent"
)

const (
	Crescendo  HairpinKind = "cresc"
	Diminuendo HairpinKind = "dim"
)

// PercussionChannel is reserved by convention for percussion-designated
// parts.
const PercussionChannel = 9

var stepSemitones = map[string]int{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

// Number returns the pitch as a number 0-127, 60 being middle C. Out of
// range pitches are clamped rather than rejected; the value set of Step is
// closed so an unknown step cannot occur in a valid score.
func (p Pitch) Number() int {
	n := (p.Octave+1)*12 + stepSemitones[p.Step] + p.Alter
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return n
}

// DefaultMapping returns the mapping used for the part at the given index
// when the song has no explicit entry for it: channel by part order (9 is
// skipped, as it is reserved for percussion), program 0. Percussion parts
// always map to the percussion channel.
func DefaultMapping(index int, percussion bool) ChannelMapping {
	if percussion {
		return ChannelMapping{Channel: PercussionChannel}
	}
	if index >= PercussionChannel {
		index++
	}
	return ChannelMapping{Channel: index % 16}
}

// MappingForPart resolves the channel/program mapping of the part at the
// given index, falling back to DefaultMapping when the song has no entry
// for the part's name.
func (s *Song) MappingForPart(index int) ChannelMapping {
	if index < 0 || index >= len(s.Parts) {
		return ChannelMapping{}
	}
	part := &s.Parts[index]
	if m, ok := s.Mappings[part.Name]; ok {
		if part.Percussion {
			m.Channel = PercussionChannel
		}
		return m
	}
	return DefaultMapping(index, part.Percussion)
}

// Copy makes a deep copy of a Song.
func (s *Song) Copy() Song {
	parts := make([]Part, len(s.Parts))
	for i, p := range s.Parts {
		parts[i] = p.Copy()
	}
	var mappings map[string]ChannelMapping
	if s.Mappings != nil {
		mappings = make(map[string]ChannelMapping, len(s.Mappings))
		for k, v := range s.Mappings {
			mappings[k] = v
		}
	}
	return Song{Title: s.Title, BPM: s.BPM, Parts: parts, Mappings: mappings}
}

// Copy makes a deep copy of a Part.
func (p *Part) Copy() Part {
	staves := make([]Staff, len(p.Staves))
	for i, st := range p.Staves {
		staves[i] = st.Copy()
	}
	return Part{Name: p.Name, Percussion: p.Percussion, Staves: staves}
}

// Copy makes a deep copy of a Staff.
func (st *Staff) Copy() Staff {
	measures := make([]Measure, len(st.Measures))
	for i, m := range st.Measures {
		measures[i] = m.Copy()
	}
	return Staff{Clef: st.Clef, Measures: measures}
}

// Copy makes a deep copy of a Measure.
func (m *Measure) Copy() Measure {
	ret := *m
	if m.Time != nil {
		t := *m.Time
		ret.Time = &t
	}
	if m.Key != nil {
		k := *m.Key
		ret.Key = &k
	}
	ret.Voices = make([]Voice, len(m.Voices))
	for i, v := range m.Voices {
		ret.Voices[i] = v.Copy()
	}
	return ret
}

// Copy makes a deep copy of a Voice.
func (v *Voice) Copy() Voice {
	events := make([]Event, len(v.Events))
	for i, e := range v.Events {
		events[i] = e.Copy()
	}
	return Voice{Events: events}
}

// Copy makes a deep copy of an Event.
func (e *Event) Copy() Event {
	ret := *e
	if e.Tuplet != nil {
		t := *e.Tuplet
		ret.Tuplet = &t
	}
	if e.Hairpin != nil {
		h := *e.Hairpin
		ret.Hairpin = &h
	}
	ret.Articulations = make([]Articulation, len(e.Articulations))
	copy(ret.Articulations, e.Articulations)
	return ret
}

// Validate checks if the Song looks like a valid song: BPM > 0, one or more
// parts each with at least one staff, and channel mappings within range.
// The finer structural invariants (unique event IDs, tie targets existing)
// are the score editor's responsibility.
func (s *Song) Validate() error {
	if s.BPM < 1 {
		return errors.New("BPM should be > 0")
	}
	if len(s.Parts) == 0 {
		return errors.New("song contains no parts")
	}
	for _, p := range s.Parts {
		if len(p.Staves) == 0 {
			return fmt.Errorf("part %q contains no staves", p.Name)
		}
		for si, staff := range p.Staves {
			for mi, m := range staff.Measures {
				// 0 means the measure sets no tempo of its own
				if m.BPM < 0 {
					return fmt.Errorf("part %q staff %v measure %v BPM should be >= 0, got %v", p.Name, si, mi, m.BPM)
				}
			}
		}
	}
	for name, m := range s.Mappings {
		if m.Channel < 0 || m.Channel > 15 {
			return fmt.Errorf("part %q maps to channel %v, should be 0-15", name, m.Channel)
		}
		if m.Program < 0 || m.Program > 127 {
			return fmt.Errorf("part %q maps to program %v, should be 0-127", name, m.Program)
		}
	}
	return nil
}
