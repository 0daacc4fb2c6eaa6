package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ajankelo/partita"
	"github.com/ajankelo/partita/perform"
	"github.com/ajankelo/partita/transport"
	"github.com/ajankelo/partita/transport/gomidi"
	"github.com/ajankelo/partita/version"
)

func main() {
	help := flag.Bool("h", false, "Show help.")
	list := flag.Bool("l", false, "List the available MIDI output ports and exit.")
	port := flag.String("p", "", "Play through the first MIDI output port whose name starts with this prefix. By default, the first available port is used.")
	expressive := flag.Bool("e", false, "Shape velocities and durations from articulations, dynamics and hairpins.")
	countIn := flag.Int("countin", 0, "Number of count-in beats before the first note.")
	metronome := flag.Bool("m", false, "Click once per count-in beat.")
	loopStart := flag.Int("loopstart", 0, "First tick of the loop window.")
	loopEnd := flag.Int("loopend", 0, "End tick of the loop window (exclusive). Zero disables looping.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if *list {
		ports := gomidi.Outputs()
		if len(ports) == 0 {
			fmt.Println("no MIDI output ports available")
		}
		for _, name := range ports {
			fmt.Println(name)
		}
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	process := func(filename string) error {
		f, err := os.Open(filename)
		if err != nil {
			return fmt.Errorf("could not read file %v: %v", filename, err)
		}
		song, err := partita.ReadSong(f)
		f.Close()
		if err != nil {
			return err
		}
		events, diag, err := perform.Generate(&song, perform.Options{Expressive: *expressive})
		if err != nil {
			return fmt.Errorf("generating playback events failed: %v", err)
		}
		out, err := gomidi.OpenOutput(*port, &song)
		if err != nil {
			return err
		}
		defer out.Close()
		title := song.Title
		if title == "" {
			title = filename
		}
		fmt.Printf("playing %v through %v (%v events, ends %v)\n", title, out, len(events), diag.Traversal.TerminatedBy)

		scheduler := transport.NewTimerScheduler(transport.TempoMapFromSong(&song))
		tr := transport.New(scheduler, out, events)
		tr.SetCountInBeats(*countIn)
		tr.SetMetronomeEnabled(*metronome)
		if *loopEnd > *loopStart {
			tr.SetLoop(transport.Loop{Start: *loopStart, End: *loopEnd, Enabled: true})
		}
		tr.Play()
		scheduler.Wait()
		tr.Stop()
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		if err := process(param); err != nil {
			fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
			retval = 1
		}
	}
	os.Exit(retval)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Partita command line utility for playing .yml/.json song files through a MIDI output.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
