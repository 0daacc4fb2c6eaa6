package perform_test

import (
	"testing"

	"github.com/ajankelo/partita"
	"github.com/ajankelo/partita/perform"
)

func songOf(measures ...partita.Measure) partita.Song {
	return partita.Song{
		BPM:   120,
		Parts: []partita.Part{{Name: "Test", Staves: []partita.Staff{{Measures: measures}}}},
	}
}

func note(id string, step string, octave int, value partita.NoteValue) partita.Event {
	return partita.Event{ID: id, Pitch: partita.Pitch{Step: step, Octave: octave}, Value: value}
}

func TestGenerateStrictDurations(t *testing.T) {
	song := songOf(partita.Measure{Voices: []partita.Voice{{Events: []partita.Event{
		note("a", "C", 4, partita.Quarter),
		note("b", "D", 4, partita.Eighth),
		note("c", "E", 4, partita.Sixteenth),
	}}}})
	events, _, err := perform.Generate(&song, perform.Options{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	expectedTicks := []int{0, 480, 720}
	expectedDurations := []int{480, 240, 120}
	if len(events) != 3 {
		t.Fatalf("got %v events, expected 3", len(events))
	}
	for i, ev := range events {
		if ev.Tick != expectedTicks[i] {
			t.Fatalf("event %v tick %v, expected %v", i, ev.Tick, expectedTicks[i])
		}
		if ev.Duration != expectedDurations[i] {
			t.Fatalf("event %v duration %v, expected %v", i, ev.Duration, expectedDurations[i])
		}
		if ev.Velocity != perform.DefaultVelocity {
			t.Fatalf("event %v velocity %v, expected %v", i, ev.Velocity, perform.DefaultVelocity)
		}
	}
}

func TestGenerateDynamicsTable(t *testing.T) {
	dynamics := []partita.Dynamic{"ppp", "pp", "p", "mp", "mf", "f", "ff", "fff"}
	prev := 0
	for _, d := range dynamics {
		v := perform.VelocityForDynamic(d)
		if v <= prev {
			t.Fatalf("velocity of %v is %v, expected to exceed %v", d, v, prev)
		}
		prev = v
	}
	if v := perform.VelocityForDynamic("ppp"); v > 25 {
		t.Fatalf("ppp velocity %v, expected around 20", v)
	}
	if v := perform.VelocityForDynamic("fff"); v != 120 {
		t.Fatalf("fff velocity %v, expected 120", v)
	}
}

func TestGenerateRestsAdvanceCursor(t *testing.T) {
	song := songOf(partita.Measure{Voices: []partita.Voice{{Events: []partita.Event{
		{Rest: true, Value: partita.Quarter},
		note("a", "C", 4, partita.Quarter),
	}}}})
	events, _, err := perform.Generate(&song, perform.Options{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %v events, expected 1 (rests produce no events)", len(events))
	}
	if events[0].Tick != 480 {
		t.Fatalf("note after a quarter rest starts at %v, expected 480", events[0].Tick)
	}
}

func TestGenerateExpressiveArticulations(t *testing.T) {
	base := note("a", "C", 4, partita.Quarter)
	shapes := []struct {
		articulation partita.Articulation
		check        func(t *testing.T, strict, expressive partita.PlaybackEvent)
	}{
		{partita.Accent, func(t *testing.T, s, e partita.PlaybackEvent) {
			if e.Velocity <= s.Velocity {
				t.Fatalf("accented velocity %v, expected to exceed strict %v", e.Velocity, s.Velocity)
			}
		}},
		{partita.Staccato, func(t *testing.T, s, e partita.PlaybackEvent) {
			if e.Duration >= s.Duration {
				t.Fatalf("staccato duration %v, expected less than strict %v", e.Duration, s.Duration)
			}
		}},
		{partita.Tenuto, func(t *testing.T, s, e partita.PlaybackEvent) {
			if e.Duration <= s.Duration {
				t.Fatalf("tenuto duration %v, expected more than strict %v", e.Duration, s.Duration)
			}
			if e.Tick > s.Tick {
				t.Fatalf("tenuto onset %v, expected at or before strict %v", e.Tick, s.Tick)
			}
		}},
	}
	for _, shape := range shapes {
		ev := base
		ev.Articulations = []partita.Articulation{shape.articulation}
		song := songOf(partita.Measure{Voices: []partita.Voice{{Events: []partita.Event{ev}}}})
		strict, _, err := perform.Generate(&song, perform.Options{})
		if err != nil {
			t.Fatalf("strict Generate failed: %v", err)
		}
		expressive, _, err := perform.Generate(&song, perform.Options{Expressive: true})
		if err != nil {
			t.Fatalf("expressive Generate failed: %v", err)
		}
		shape.check(t, strict[0], expressive[0])
	}
}

func TestGenerateArticulationsCompose(t *testing.T) {
	ev := note("a", "C", 4, partita.Quarter)
	ev.Articulations = []partita.Articulation{partita.Staccato, partita.Accent}
	song := songOf(partita.Measure{Voices: []partita.Voice{{Events: []partita.Event{ev}}}})
	events, _, err := perform.Generate(&song, perform.Options{Expressive: true})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if events[0].Duration != 264 { // 480 * 0.55
		t.Fatalf("staccato+accent duration %v, expected 264", events[0].Duration)
	}
	if events[0].Velocity != perform.DefaultVelocity+10 {
		t.Fatalf("staccato+accent velocity %v, expected %v", events[0].Velocity, perform.DefaultVelocity+10)
	}
}

func TestGenerateHairpinInterpolation(t *testing.T) {
	a := note("a", "C", 4, partita.Quarter)
	a.Hairpin = &partita.Hairpin{To: "c", Kind: partita.Crescendo}
	song := songOf(partita.Measure{Voices: []partita.Voice{{Events: []partita.Event{
		a,
		note("b", "D", 4, partita.Quarter),
		note("c", "E", 4, partita.Quarter),
		note("d", "F", 4, partita.Quarter),
	}}}})
	events, _, err := perform.Generate(&song, perform.Options{Expressive: true})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	expected := []int{84, 92, 100, 84} // 0, +8, +16, outside the hairpin
	for i, ev := range events {
		if ev.Velocity != expected[i] {
			t.Fatalf("event %v velocity %v, expected %v", i, ev.Velocity, expected[i])
		}
	}
}

func TestGenerateDecrescendo(t *testing.T) {
	a := note("a", "C", 4, partita.Quarter)
	a.Hairpin = &partita.Hairpin{To: "b", Kind: partita.Diminuendo}
	song := songOf(partita.Measure{Voices: []partita.Voice{{Events: []partita.Event{
		a,
		note("b", "D", 4, partita.Quarter),
	}}}})
	events, _, err := perform.Generate(&song, perform.Options{Expressive: true})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if events[0].Velocity != 84 || events[1].Velocity != 68 {
		t.Fatalf("diminuendo velocities %v %v, expected 84 68", events[0].Velocity, events[1].Velocity)
	}
}

func TestGeneratePolyphonicVoicesShareStart(t *testing.T) {
	song := songOf(
		partita.Measure{Voices: []partita.Voice{
			{Events: []partita.Event{note("a", "C", 4, partita.Half)}},
			{Events: []partita.Event{note("b", "E", 4, partita.Whole)}},
		}},
		partita.Measure{Voices: []partita.Voice{
			{Events: []partita.Event{note("c", "G", 4, partita.Quarter)}},
		}},
	)
	events, _, err := perform.Generate(&song, perform.Options{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if events[0].Tick != 0 || events[1].Tick != 0 {
		t.Fatalf("voices of the same measure start at %v and %v, expected both 0", events[0].Tick, events[1].Tick)
	}
	// the second measure starts after the longest voice of the first
	if events[2].Tick != 1920 {
		t.Fatalf("second measure starts at %v, expected 1920", events[2].Tick)
	}
}

func TestGenerateRepeatedMeasures(t *testing.T) {
	song := songOf(
		partita.Measure{RepeatStart: true, Voices: []partita.Voice{{Events: []partita.Event{note("a", "C", 4, partita.Whole)}}}},
		partita.Measure{RepeatEnd: true, Voices: []partita.Voice{{Events: []partita.Event{note("b", "D", 4, partita.Whole)}}}},
	)
	events, diag, err := perform.Generate(&song, perform.Options{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("got %v events, expected 4 (two measures played twice)", len(events))
	}
	expectedTicks := []int{0, 1920, 3840, 5760}
	for i, ev := range events {
		if ev.Tick != expectedTicks[i] {
			t.Fatalf("event %v tick %v, expected %v", i, ev.Tick, expectedTicks[i])
		}
	}
	if diag.TotalTicks != 7680 {
		t.Fatalf("total ticks %v, expected 7680", diag.TotalTicks)
	}
	if diag.Traversal.TerminatedBy != partita.EndOfScore {
		t.Fatalf("terminated by %v, expected %v", diag.Traversal.TerminatedBy, partita.EndOfScore)
	}
}

func TestGenerateTiesInsideRepeats(t *testing.T) {
	a := note("a", "C", 4, partita.Half)
	a.TieTo = "b"
	song := songOf(
		partita.Measure{RepeatStart: true, Voices: []partita.Voice{{Events: []partita.Event{a}}}},
		partita.Measure{RepeatEnd: true, Voices: []partita.Voice{{Events: []partita.Event{note("b", "C", 4, partita.Half)}}}},
	)
	events, _, err := perform.Generate(&song, perform.Options{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("got %v events, expected 4 (two measures played twice)", len(events))
	}
	seen := map[string]bool{}
	for _, ev := range events {
		if seen[ev.Source] {
			t.Fatalf("source %q appears twice", ev.Source)
		}
		seen[ev.Source] = true
	}
	// each pass ties to its own continuation, never across passes
	if events[0].TieTo != events[1].Source {
		t.Fatalf("first-pass tie links to %q, expected %q", events[0].TieTo, events[1].Source)
	}
	if events[2].TieTo != events[3].Source {
		t.Fatalf("second-pass tie links to %q, expected %q", events[2].TieTo, events[3].Source)
	}
	if events[1].TieTo != "" || events[3].TieTo != "" {
		t.Fatalf("tie targets carry onward links %q and %q, expected none", events[1].TieTo, events[3].TieTo)
	}
}

func TestGenerateDanglingTieIsDropped(t *testing.T) {
	a := note("a", "C", 4, partita.Quarter)
	a.TieTo = "nowhere"
	song := songOf(partita.Measure{Voices: []partita.Voice{{Events: []partita.Event{a}}}})
	events, _, err := perform.Generate(&song, perform.Options{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if events[0].TieTo != "" {
		t.Fatalf("tie to a missing event kept link %q, expected it dropped", events[0].TieTo)
	}
}

func TestGenerateUnknownValueIsAnError(t *testing.T) {
	song := songOf(partita.Measure{Voices: []partita.Voice{{Events: []partita.Event{
		{ID: "a", Pitch: partita.Pitch{Step: "C", Octave: 4}, Value: "breve"},
	}}}})
	if _, _, err := perform.Generate(&song, perform.Options{}); err == nil {
		t.Fatalf("expected an error for an event with an unknown duration value")
	}
}
