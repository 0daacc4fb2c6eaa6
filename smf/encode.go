package smf

import (
	"bytes"
	"encoding/binary"
	"math/rand"

	"github.com/ajankelo/partita"
	"github.com/ajankelo/partita/perform"
)

type (
	// EncodeOptions control an Encode call. When Events is non-nil the
	// encoder serializes exactly that list, enabling parity checks against
	// what a live performance played; otherwise it generates events from
	// the song in strict mode. Humanize, when set, perturbs onsets and
	// velocities deterministically from the seed.
	EncodeOptions struct {
		Events   []partita.PlaybackEvent
		Humanize *HumanizeConfig
	}

	// HumanizeConfig gives the parameters of the deterministic jitter: the
	// same seed and the same input always produce byte-identical output.
	HumanizeConfig struct {
		Seed           int64
		MaxTickOffset  int
		VelocityJitter int
	}
)

// Encode serializes the song into a Type-1 multi-track file: a conductor
// track carrying tempo, time signature and key signature records, then one
// track per part.
func Encode(song *partita.Song, opts EncodeOptions) ([]byte, error) {
	events := opts.Events
	if events == nil {
		var err error
		events, _, err = perform.Generate(song, perform.Options{})
		if err != nil {
			return nil, err
		}
	}
	var rng *rand.Rand
	if opts.Humanize != nil {
		rng = rand.New(rand.NewSource(opts.Humanize.Seed))
	}

	var buf bytes.Buffer
	buf.WriteString(headerMagic)
	binary.Write(&buf, binary.BigEndian, uint32(6))
	binary.Write(&buf, binary.BigEndian, uint16(1)) // format
	binary.Write(&buf, binary.BigEndian, uint16(len(song.Parts)+1))
	binary.Write(&buf, binary.BigEndian, uint16(partita.TicksPerQuarter))

	buf.Write(conductorTrack(song))
	for pi := range song.Parts {
		buf.Write(partTrack(song, pi, events, opts.Humanize, rng))
	}
	return buf.Bytes(), nil
}

// conductorTrack walks the resolved measure order of the song's first staff
// and emits tempo, time signature and key signature records: all three once
// at tick 0, and all three again at every later measure start where any of
// them changes, in tempo/time/key order at the identical tick.
func conductorTrack(song *partita.Song) []byte {
	var tb trackBuilder
	bpm := song.BPM
	if bpm <= 0 {
		bpm = 120
	}
	timeSig := partita.TimeSignature{Numerator: 4, Denominator: 4}
	key := partita.KeySignature{}

	var measures []partita.Measure
	if len(song.Parts) > 0 && len(song.Parts[0].Staves) > 0 {
		measures = song.Parts[0].Staves[0].Measures
	}
	result := partita.Resolve(measures, 0)
	cursor := 0
	for i, visit := range result.Order {
		m := &measures[visit.Measure]
		changed := i == 0
		if m.BPM != 0 && m.BPM != bpm {
			bpm = m.BPM
			changed = true
		}
		if m.Time != nil && *m.Time != timeSig {
			timeSig = *m.Time
			changed = true
		}
		if m.Key != nil && *m.Key != key {
			key = *m.Key
			changed = true
		}
		if changed {
			emitTempoTimeKey(&tb, cursor, bpm, timeSig, key)
		}
		cursor += m.LengthTicks()
	}
	if len(result.Order) == 0 {
		emitTempoTimeKey(&tb, 0, bpm, timeSig, key)
	}
	return tb.chunk()
}

func emitTempoTimeKey(tb *trackBuilder, tick, bpm int, timeSig partita.TimeSignature, key partita.KeySignature) {
	micros := 60000000 / bpm
	tb.addMeta(tick, metaTempo, byte(micros>>16), byte(micros>>8), byte(micros))
	tb.addMeta(tick, metaTimeSignature, byte(timeSig.Numerator), log2(timeSig.Denominator), 24, 8)
	mode := byte(0)
	if key.Minor {
		mode = 1
	}
	tb.addMeta(tick, metaKeySignature, byte(int8(key.Fifths)), mode)
}

func log2(denominator int) byte {
	var ret byte
	for denominator > 1 {
		denominator >>= 1
		ret++
	}
	return ret
}

// partTrack serializes the events of one part: a track-name record, a
// program change on the part's mapped channel, then the merged note spans.
// A chain of notes linked by ties collapses into a single sounding region:
// one note-on at the first note's tick, one note-off after the summed
// duration of the whole chain.
func partTrack(song *partita.Song, pi int, events []partita.PlaybackEvent, humanize *HumanizeConfig, rng *rand.Rand) []byte {
	var tb trackBuilder
	part := &song.Parts[pi]
	mapping, explicit := song.Mappings[part.Name]
	if !explicit {
		mapping = partita.DefaultMapping(pi, part.Percussion)
		if !part.Percussion {
			if program, ok := ProgramForName(part.Name); ok {
				mapping.Program = program
			}
		}
	} else if part.Percussion {
		mapping.Channel = partita.PercussionChannel
	}
	channel := byte(mapping.Channel & 0x0F)

	tb.addMeta(0, metaTrackName, []byte(part.Name)...)
	tb.add(0, rankProgram, statusProgramChange|channel, byte(mapping.Program))

	var own []partita.PlaybackEvent
	for _, ev := range events {
		if ev.Part == pi {
			own = append(own, ev)
		}
	}
	byID := make(map[string]int, len(own))
	for i, ev := range own {
		byID[ev.Source] = i
	}
	consumed := make([]bool, len(own))
	for i, ev := range own {
		if consumed[i] {
			continue
		}
		start, velocity := ev.Tick, ev.Velocity
		total := ev.Duration
		for next := ev.TieTo; next != ""; {
			j, ok := byID[next]
			if !ok || consumed[j] {
				break
			}
			consumed[j] = true
			total += own[j].Duration
			next = own[j].TieTo
		}
		if humanize != nil {
			if humanize.MaxTickOffset > 0 {
				start += rng.Intn(2*humanize.MaxTickOffset+1) - humanize.MaxTickOffset
				if start < 0 {
					start = 0
				}
			}
			if humanize.VelocityJitter > 0 {
				velocity += rng.Intn(2*humanize.VelocityJitter+1) - humanize.VelocityJitter
				if velocity < 1 {
					velocity = 1
				}
				if velocity > 127 {
					velocity = 127
				}
			}
		}
		tb.add(start, rankNoteOn, statusNoteOn|channel, byte(ev.Note), byte(velocity))
		tb.add(start+total, rankNoteOff, statusNoteOff|channel, byte(ev.Note), 0)
	}
	return tb.chunk()
}
