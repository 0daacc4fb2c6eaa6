// Package gomidi sends playback events to a real MIDI output port through
// the rtmidi driver. It is the live counterpart of the file encoder: the
// same playback events, the same channel/program mapping, audible instead
// of serialized.
package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ajankelo/partita"
	"github.com/ajankelo/partita/smf"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Click convention: rimshot on the percussion channel.
const (
	clickNote     = 37
	clickVelocity = 100
)

type (
	// Output is a transport.EventSink backed by one open MIDI out port.
	Output struct {
		out      drivers.Out
		send     func(midi.Message) error
		channels []uint8
	}
)

// Outputs returns the names of the available MIDI output ports.
func Outputs() []string {
	var ret []string
	for _, port := range midi.GetOutPorts() {
		ret = append(ret, port.String())
	}
	return ret
}

// OpenOutput opens the first output port whose name starts with the given
// prefix, or the first port of all when the prefix is empty, and sends the
// song's program changes so every channel plays its mapped instrument.
func OpenOutput(namePrefix string, song *partita.Song) (*Output, error) {
	var out drivers.Out
	for _, port := range midi.GetOutPorts() {
		if namePrefix == "" || strings.HasPrefix(port.String(), namePrefix) {
			out = port
			break
		}
	}
	if out == nil {
		if namePrefix == "" {
			return nil, errors.New("no MIDI output ports available")
		}
		return nil, fmt.Errorf("no MIDI output port starts with %q", namePrefix)
	}
	if err := out.Open(); err != nil {
		return nil, fmt.Errorf("opening MIDI output failed: %w", err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		out.Close()
		return nil, err
	}
	o := &Output{out: out, send: send}
	for pi, part := range song.Parts {
		mapping := song.MappingForPart(pi)
		if _, explicit := song.Mappings[part.Name]; !explicit && !part.Percussion {
			if program, ok := smf.ProgramForName(part.Name); ok {
				mapping.Program = program
			}
		}
		o.channels = append(o.channels, uint8(mapping.Channel&0x0F))
		o.send(midi.ProgramChange(uint8(mapping.Channel&0x0F), uint8(mapping.Program)))
	}
	return o, nil
}

func (o *Output) channel(part int) uint8 {
	if part < 0 || part >= len(o.channels) {
		return 0
	}
	return o.channels[part]
}

func (o *Output) NoteOn(ev partita.PlaybackEvent) {
	o.send(midi.NoteOn(o.channel(ev.Part), uint8(ev.Note), uint8(ev.Velocity)))
}

func (o *Output) NoteOff(ev partita.PlaybackEvent) {
	o.send(midi.NoteOff(o.channel(ev.Part), uint8(ev.Note)))
}

func (o *Output) Click() {
	o.send(midi.NoteOn(partita.PercussionChannel, clickNote, clickVelocity))
	o.send(midi.NoteOff(partita.PercussionChannel, clickNote))
}

func (o *Output) String() string { return o.out.String() }

// Silence sends a note-off for every key on every channel a part maps to.
func (o *Output) Silence() {
	seen := make(map[uint8]bool)
	for _, ch := range o.channels {
		if seen[ch] {
			continue
		}
		seen[ch] = true
		for key := 0; key < 128; key++ {
			o.send(midi.NoteOff(ch, uint8(key)))
		}
	}
}

func (o *Output) Close() {
	o.Silence()
	o.out.Close()
}
