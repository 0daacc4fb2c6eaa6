// Package smf encodes a song into a Type-1 standard MIDI file and decodes
// such files back into their chunk/event structure. The encoder and decoder
// are pure functions over byte slices; they share only the constants of the
// container format.
package smf

import "errors"

// Chunk and event constants of the container format.
const (
	headerMagic = "MThd"
	trackMagic  = "MTrk"

	metaTrackName     = 0x03
	metaEndOfTrack    = 0x2F
	metaTempo         = 0x51
	metaTimeSignature = 0x58
	metaKeySignature  = 0x59

	statusNoteOff       = 0x80
	statusNoteOn        = 0x90
	statusProgramChange = 0xC0
)

var (
	// ErrHeaderLength is returned when the header chunk is missing,
	// truncated, or declares a length other than the expected 6 bytes.
	ErrHeaderLength = errors.New("header length invalid")

	// ErrTrackChunk is returned when a track chunk's declared byte length
	// does not match its content.
	ErrTrackChunk = errors.New("track chunk invalid")
)

type (
	// File is the parsed structure of a standard MIDI file: the header
	// fields plus the event lists of every track chunk. Built fresh on
	// every Decode call.
	File struct {
		Format    int
		NumTracks int // as declared by the header
		Division  int // ticks per quarter note, or negative for SMPTE
		Tracks    []Track
	}

	Track struct {
		Events []TrackEvent
	}

	// TrackEvent is one event of a track, with its delta time already
	// accumulated into an absolute tick.
	TrackEvent struct {
		Tick     int
		Kind     EventKind
		Status   byte // channel events: status byte including the channel nibble
		MetaType byte // meta events only
		Data     []byte
	}

	EventKind int
)

const (
	ChannelEvent EventKind = iota
	MetaEvent
	SysexEvent
)

// Channel returns the channel nibble of a channel event.
func (e *TrackEvent) Channel() int {
	return int(e.Status & 0x0F)
}
