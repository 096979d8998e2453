package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/dgallion1/deckgest/internal/slides"
)

// DefaultProfile is used when a request names none.
const DefaultProfile = "ai"

// Profile is a named budget plus the source-side settings that go with it.
type Profile struct {
	slides.Budget
	// SentencesPerSection caps bullets taken from each article or document
	// section before fitting.
	SentencesPerSection int `toml:"sentences_per_section" json:"sentences_per_section"`
}

// Profiles maps profile names to settings.
type Profiles map[string]Profile

// BuiltinProfiles returns the profiles available without a profile file.
func BuiltinProfiles() Profiles {
	return Profiles{
		"ai": {
			Budget:              slides.DefaultBudget(),
			SentencesPerSection: 5,
		},
		"wiki": {
			Budget:              slides.Budget{MaxSlides: 7, MaxBulletChars: 300, MaxTotalChars: 1500, MinMeaningfulChars: 40},
			SentencesPerSection: 5,
		},
		"document": {
			Budget:              slides.Budget{MaxSlides: 10, MaxBulletChars: 240, MaxTotalChars: 1200, MinMeaningfulChars: 40},
			SentencesPerSection: 4,
		},
	}
}

type profileFile struct {
	Profiles map[string]Profile `toml:"profiles"`
}

// LoadProfiles overlays the [profiles.<name>] tables in path onto the
// built-in profiles. Fields left out of a table keep the built-in value, or
// the default budget for new profiles. A missing file is an error only when
// required.
func LoadProfiles(path string, required bool) (Profiles, error) {
	profiles := BuiltinProfiles()
	if path == "" {
		return profiles, nil
	}

	var file profileFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return profiles, nil
		}
		return nil, fmt.Errorf("parse profiles %s: %w", path, err)
	}

	for name, p := range file.Profiles {
		base, ok := profiles[name]
		if !ok {
			base = Profile{Budget: slides.DefaultBudget(), SentencesPerSection: 5}
		}
		base.Budget = base.Budget.Merge(p.Budget)
		if p.SentencesPerSection > 0 {
			base.SentencesPerSection = p.SentencesPerSection
		}
		profiles[name] = base
	}
	return profiles, nil
}

// ErrUnknownProfile is returned by Get for names not in the set.
var ErrUnknownProfile = errors.New("unknown profile")

// Get looks up name, falling back to DefaultProfile for "".
func (p Profiles) Get(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	prof, ok := p[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q (have %v)", ErrUnknownProfile, name, p.Names())
	}
	return prof, nil
}

// Names returns the profile names in sorted order.
func (p Profiles) Names() []string {
	return slices.Sorted(maps.Keys(p))
}
