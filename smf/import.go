package smf

type (
	// ImportResult is the best-effort interpretation of a decoded file:
	// the raw structure, paired note spans, and advisory warnings about
	// content that parses fine but imports with reduced fidelity.
	ImportResult struct {
		File     *File
		Warnings []string
		Notes    []NoteSpan
	}

	// NoteSpan is a sounding note recovered from a note-on/note-off pair.
	NoteSpan struct {
		Track    int
		Channel  int
		Note     int
		Velocity int
		Start    int
		End      int
	}
)

// Import decodes the file and pairs its note events into sounding spans. A
// note-on with velocity zero closes a note like a note-off does. Structural
// decode errors are still fatal; everything else — unsupported format,
// SMPTE time division, unmatched note-ons — degrades to a warning or a
// best-effort span instead of failing the parse.
func Import(data []byte) (*ImportResult, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	ret := &ImportResult{File: f}
	if f.Format != 1 {
		ret.Warnings = append(ret.Warnings, "only format 1 is fully supported")
	}
	if f.Division < 0 {
		ret.Warnings = append(ret.Warnings, "SMPTE time division detected; ticks-per-quarter expected")
	}
	type key struct {
		channel, note int
	}
	for ti, track := range f.Tracks {
		open := make(map[key][]NoteSpan)
		lastTick := 0
		for _, ev := range track.Events {
			lastTick = ev.Tick
			if ev.Kind != ChannelEvent || len(ev.Data) < 2 {
				continue
			}
			k := key{channel: ev.Channel(), note: int(ev.Data[0])}
			switch {
			case ev.Status&0xF0 == statusNoteOn && ev.Data[1] > 0:
				open[k] = append(open[k], NoteSpan{
					Track:    ti,
					Channel:  k.channel,
					Note:     k.note,
					Velocity: int(ev.Data[1]),
					Start:    ev.Tick,
				})
			case ev.Status&0xF0 == statusNoteOff || ev.Status&0xF0 == statusNoteOn:
				if spans := open[k]; len(spans) > 0 {
					span := spans[0]
					open[k] = spans[1:]
					span.End = ev.Tick
					ret.Notes = append(ret.Notes, span)
				}
			}
		}
		// unmatched note-ons close at the end of the track
		for _, spans := range open {
			for _, span := range spans {
				span.End = lastTick
				ret.Notes = append(ret.Notes, span)
			}
		}
	}
	return ret, nil
}
