package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ajankelo/partita"
	"github.com/ajankelo/partita/perform"
	"github.com/ajankelo/partita/smf"
	"github.com/ajankelo/partita/version"
)

func main() {
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, everything is placed in the same directory where the original song file is.")
	expressive := flag.Bool("e", false, "Shape velocities and durations from articulations, dynamics and hairpins instead of exporting every note verbatim.")
	humanize := flag.Bool("u", false, "Perturb note onsets and velocities with a deterministic jitter.")
	seed := flag.Int64("seed", 1, "Seed of the humanization jitter. The same seed and input always produce the same file.")
	tickOffset := flag.Int("maxtick", 10, "Maximum tick offset of the humanization jitter.")
	velJitter := flag.Int("maxvel", 8, "Maximum velocity offset of the humanization jitter.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
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
		events, _, err := perform.Generate(&song, perform.Options{Expressive: *expressive})
		if err != nil {
			return fmt.Errorf("generating playback events failed: %v", err)
		}
		opts := smf.EncodeOptions{Events: events}
		if *humanize {
			opts.Humanize = &smf.HumanizeConfig{Seed: *seed, MaxTickOffset: *tickOffset, VelocityJitter: *velJitter}
		}
		contents, err := smf.Encode(&song, opts)
		if err != nil {
			return fmt.Errorf("encoding failed: %v", err)
		}
		if *stdout {
			_, err := os.Stdout.Write(contents)
			return err
		}
		_, name := filepath.Split(filename)
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".mid"
		dir := *directory
		if dir == "" {
			dir = filepath.Dir(filename)
		} else if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("could not create output directory %v: %v", dir, err)
		}
		out := filepath.Join(dir, name)
		if err := os.WriteFile(out, contents, 0644); err != nil {
			return fmt.Errorf("could not write file %v: %v", out, err)
		}
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
	fmt.Fprintf(os.Stderr, "Partita command line utility for exporting .yml/.json song files as .mid files.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
