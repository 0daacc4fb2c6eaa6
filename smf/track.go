package smf

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// Event ranks decide the order of events sharing a tick: meta records
// first, then program changes, then note-offs strictly before note-ons so
// no overlapping-pitch ambiguity occurs on monophonic channels.
const (
	rankMeta = iota
	rankProgram
	rankNoteOff
	rankNoteOn
)

type (
	builderEvent struct {
		tick int
		rank int
		seq  int
		data []byte
	}

	// trackBuilder collects events at absolute ticks and serializes them
	// as a delta-timed track chunk. The chunk length is computed from the
	// finished content, never estimated.
	trackBuilder struct {
		events []builderEvent
	}
)

func (tb *trackBuilder) add(tick, rank int, data ...byte) {
	tb.events = append(tb.events, builderEvent{tick: tick, rank: rank, seq: len(tb.events), data: data})
}

func (tb *trackBuilder) addMeta(tick int, metaType byte, payload ...byte) {
	var buf bytes.Buffer
	buf.WriteByte(0xFF)
	buf.WriteByte(metaType)
	writeVarLen(&buf, len(payload))
	buf.Write(payload)
	tb.add(tick, rankMeta, buf.Bytes()...)
}

// chunk sorts the events into tick order and returns the complete track
// chunk, terminated by an end-of-track meta record.
func (tb *trackBuilder) chunk() []byte {
	sort.Slice(tb.events, func(i, j int) bool {
		a, b := tb.events[i], tb.events[j]
		if a.tick != b.tick {
			return a.tick < b.tick
		}
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		return a.seq < b.seq
	})
	var body bytes.Buffer
	prev := 0
	for _, e := range tb.events {
		writeVarLen(&body, e.tick-prev)
		body.Write(e.data)
		prev = e.tick
	}
	writeVarLen(&body, 0)
	body.Write([]byte{0xFF, metaEndOfTrack, 0x00})

	var chunk bytes.Buffer
	chunk.WriteString(trackMagic)
	binary.Write(&chunk, binary.BigEndian, uint32(body.Len()))
	chunk.Write(body.Bytes())
	return chunk.Bytes()
}

// writeVarLen writes a variable-length base-128 quantity, most significant
// septet first, continuation bit set on all but the last byte.
func writeVarLen(buf *bytes.Buffer, value int) {
	if value < 0 {
		value = 0
	}
	var stack [5]byte
	n := 0
	for {
		stack[n] = byte(value & 0x7F)
		n++
		value >>= 7
		if value == 0 {
			break
		}
	}
	for i := n - 1; i > 0; i-- {
		buf.WriteByte(stack[i] | 0x80)
	}
	buf.WriteByte(stack[0])
}
