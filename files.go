package partita

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ReadSong reads a song from r, accepting either JSON or YAML, and
// validates it.
func ReadSong(r io.Reader) (Song, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Song{}, fmt.Errorf("reading song: %v", err)
	}
	var song Song
	if errJSON := json.Unmarshal(b, &song); errJSON != nil {
		if errYaml := yaml.Unmarshal(b, &song); errYaml != nil {
			return Song{}, fmt.Errorf("the song could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if err := song.Validate(); err != nil {
		return Song{}, fmt.Errorf("invalid song: %v", err)
	}
	return song, nil
}

// WriteSong writes the song to w as YAML.
func WriteSong(w io.Writer, song Song) error {
	contents, err := yaml.Marshal(song)
	if err != nil {
		return fmt.Errorf("marshaling song: %v", err)
	}
	if _, err := w.Write(contents); err != nil {
		return fmt.Errorf("writing song: %v", err)
	}
	return nil
}
