package smf

import (
	"encoding/binary"
	"fmt"
)

// Decode parses a standard MIDI file into its chunk/event structure. The
// two structural failures — a header chunk not declaring the expected
// 6-byte payload, and a track chunk whose declared length does not match
// its content — are fatal and reported as wrapped ErrHeaderLength and
// ErrTrackChunk. Well-formed but unsupported content (format 0 or 2, SMPTE
// division) decodes fine; see Import for the advisory warnings.
func Decode(data []byte) (*File, error) {
	if len(data) < 14 || string(data[0:4]) != headerMagic {
		return nil, fmt.Errorf("%w: missing or truncated %s chunk", ErrHeaderLength, headerMagic)
	}
	if l := binary.BigEndian.Uint32(data[4:8]); l != 6 {
		return nil, fmt.Errorf("%w: declared length %v, expected 6", ErrHeaderLength, l)
	}
	f := &File{
		Format:    int(binary.BigEndian.Uint16(data[8:10])),
		NumTracks: int(binary.BigEndian.Uint16(data[10:12])),
		Division:  int(int16(binary.BigEndian.Uint16(data[12:14]))),
	}
	pos := 14
	for pos < len(data) {
		if pos+8 > len(data) {
			return nil, fmt.Errorf("%w: truncated chunk header at byte %v", ErrTrackChunk, pos)
		}
		id := string(data[pos : pos+4])
		length := int(binary.BigEndian.Uint32(data[pos+4 : pos+8]))
		pos += 8
		if pos+length > len(data) {
			return nil, fmt.Errorf("%w: chunk %q declares %v bytes, only %v remain", ErrTrackChunk, id, length, len(data)-pos)
		}
		if id != trackMagic {
			// alien chunks are skipped, per the container convention
			pos += length
			continue
		}
		track, err := decodeTrack(data[pos : pos+length])
		if err != nil {
			return nil, err
		}
		f.Tracks = append(f.Tracks, track)
		pos += length
	}
	return f, nil
}

// decodeTrack parses one track chunk body. Delta times accumulate into
// absolute ticks; status bytes below 0x80 reuse the previous channel-event
// status (running status); 0xFF introduces a meta event and 0xF0/0xF7 a
// sysex event, neither of which participates in running status.
func decodeTrack(body []byte) (Track, error) {
	var track Track
	var runningStatus byte
	tick := 0
	pos := 0
	for pos < len(body) {
		delta, next, err := readVarLen(body, pos)
		if err != nil {
			return track, err
		}
		pos = next
		tick += delta
		if pos >= len(body) {
			return track, fmt.Errorf("%w: delta time without an event at byte %v", ErrTrackChunk, pos)
		}
		status := body[pos]
		switch {
		case status == 0xFF:
			if pos+2 > len(body) {
				return track, fmt.Errorf("%w: truncated meta event", ErrTrackChunk)
			}
			metaType := body[pos+1]
			length, next, err := readVarLen(body, pos+2)
			if err != nil {
				return track, err
			}
			if next+length > len(body) {
				return track, fmt.Errorf("%w: meta event payload overruns the chunk", ErrTrackChunk)
			}
			track.Events = append(track.Events, TrackEvent{
				Tick:     tick,
				Kind:     MetaEvent,
				MetaType: metaType,
				Data:     body[next : next+length],
			})
			runningStatus = 0
			pos = next + length
		case status == 0xF0 || status == 0xF7:
			length, next, err := readVarLen(body, pos+1)
			if err != nil {
				return track, err
			}
			if next+length > len(body) {
				return track, fmt.Errorf("%w: sysex payload overruns the chunk", ErrTrackChunk)
			}
			track.Events = append(track.Events, TrackEvent{
				Tick: tick,
				Kind: SysexEvent,
				Data: body[next : next+length],
			})
			runningStatus = 0
			pos = next + length
		case status >= 0xF8:
			// realtime bytes carry no data and leave running status alone
			pos++
		case status >= 0xF1:
			n := systemCommonDataBytes(status)
			if pos+1+n > len(body) {
				return track, fmt.Errorf("%w: system common event overruns the chunk", ErrTrackChunk)
			}
			runningStatus = 0
			pos += 1 + n
		default:
			dataStart := pos + 1
			if status < 0x80 {
				if runningStatus == 0 {
					return track, fmt.Errorf("%w: data byte %#02x with no running status", ErrTrackChunk, status)
				}
				status = runningStatus
				dataStart = pos
			} else {
				runningStatus = status
			}
			n := channelDataBytes(status)
			if dataStart+n > len(body) {
				return track, fmt.Errorf("%w: channel event overruns the chunk", ErrTrackChunk)
			}
			track.Events = append(track.Events, TrackEvent{
				Tick:   tick,
				Kind:   ChannelEvent,
				Status: status,
				Data:   body[dataStart : dataStart+n],
			})
			pos = dataStart + n
		}
	}
	return track, nil
}

// systemCommonDataBytes returns the data byte count of a system common
// status: song position has two, MTC quarter frame and song select one,
// the rest none. These are skipped, not surfaced, but must be sized
// correctly or the event stream desynchronizes.
func systemCommonDataBytes(status byte) int {
	switch status {
	case 0xF2:
		return 2
	case 0xF1, 0xF3:
		return 1
	}
	return 0
}

// channelDataBytes returns the data byte count of a channel event: one for
// program change and channel pressure, two for everything else.
func channelDataBytes(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 1
	}
	return 2
}

// readVarLen reads a variable-length base-128 quantity, returning the
// value and the position after it.
func readVarLen(data []byte, pos int) (int, int, error) {
	value := 0
	for i := 0; i < 4; i++ {
		if pos >= len(data) {
			return 0, pos, fmt.Errorf("%w: truncated variable-length quantity", ErrTrackChunk)
		}
		c := data[pos]
		pos++
		value = value<<7 | int(c&0x7F)
		if c&0x80 == 0 {
			return value, pos, nil
		}
	}
	return 0, pos, fmt.Errorf("%w: variable-length quantity exceeds 4 bytes", ErrTrackChunk)
}
