package perform

import "github.com/ajankelo/partita"

// noteKey addresses a note in a staff by position: measure, voice, event
// index. Used instead of pointers so the generated offset map cannot keep
// the score alive or alias across calls.
type noteKey struct {
	measure, voice, event int
}

// hairpinOffsets computes the per-note velocity offsets of all hairpins in
// the staff. A hairpin spans from the note carrying it to the note with the
// referenced ID; the offset interpolates linearly from 0 at the start to
// +16 (crescendo) or -16 (diminuendo) at the end, over the index distance
// between the endpoints in document order. Notes outside any hairpin get no
// offset. The ID lookup is built fresh per call, never stored.
func hairpinOffsets(staff *partita.Staff) map[noteKey]int {
	type docNote struct {
		key noteKey
		ev  *partita.Event
	}
	var notes []docNote
	index := make(map[string]int)
	for mi := range staff.Measures {
		for vi := range staff.Measures[mi].Voices {
			for ei := range staff.Measures[mi].Voices[vi].Events {
				ev := &staff.Measures[mi].Voices[vi].Events[ei]
				if ev.Rest {
					continue
				}
				if ev.ID != "" {
					index[ev.ID] = len(notes)
				}
				notes = append(notes, docNote{key: noteKey{mi, vi, ei}, ev: ev})
			}
		}
	}
	offsets := make(map[noteKey]int)
	for a, n := range notes {
		h := n.ev.Hairpin
		if h == nil {
			continue
		}
		b, ok := index[h.To]
		if !ok || b <= a {
			continue
		}
		delta := 16
		if h.Kind == partita.Diminuendo {
			delta = -16
		}
		for i := a; i <= b; i++ {
			offsets[notes[i].key] += delta * (i - a) / (b - a)
		}
	}
	return offsets
}
