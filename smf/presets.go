package smf

import (
	"embed"
	"strings"

	"gopkg.in/yaml.v2"
)

//go:embed presets/gm.yml
var presetFS embed.FS

type programPreset struct {
	Name    string
	Program int
}

var programPresets = func() []programPreset {
	data, err := presetFS.ReadFile("presets/gm.yml")
	if err != nil {
		return nil
	}
	var ret []programPreset
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return nil
	}
	return ret
}()

// ProgramForName matches a part name against the embedded General MIDI
// program table, case insensitively. The first entry whose name occurs in
// the part name wins, so more specific names come earlier in the table.
func ProgramForName(name string) (int, bool) {
	name = strings.ToLower(name)
	for _, p := range programPresets {
		if strings.Contains(name, p.Name) {
			return p.Program, true
		}
	}
	return 0, false
}
