// Package words holds the themed word lists and the masking helpers
// the room engine draws from. The catalogue is immutable after load;
// picking words is safe from any goroutine.
package words

import (
	_ "embed"
	"fmt"
	"math/rand"
	"os"
	"sync"

	"gopkg.in/yaml.v2"
)

//go:embed themes.yaml
var defaultThemes []byte

type themeFile struct {
	Themes map[string][]string `yaml:"themes"`
}

// Catalogue serves N distinct random words per theme.
type Catalogue struct {
	themes map[string][]string

	mu  sync.Mutex
	rng *rand.Rand
}

// Load builds the catalogue from the embedded theme packs.
func Load(seed int64) (*Catalogue, error) {
	return parse(defaultThemes, seed)
}

// LoadFile builds the catalogue from an external theme pack, for
// deployments that ship their own word lists.
func LoadFile(path string, seed int64) (*Catalogue, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read theme pack: %w", err)
	}
	return parse(raw, seed)
}

func parse(raw []byte, seed int64) (*Catalogue, error) {
	var file themeFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse theme pack: %w", err)
	}
	if len(file.Themes) == 0 {
		return nil, fmt.Errorf("theme pack contains no themes")
	}
	for name, list := range file.Themes {
		if len(list) < 3 {
			return nil, fmt.Errorf("theme %q needs at least 3 words, has %d", name, len(list))
		}
	}
	return &Catalogue{
		themes: file.Themes,
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// HasTheme reports whether the catalogue knows the theme.
func (c *Catalogue) HasTheme(theme string) bool {
	_, ok := c.themes[theme]
	return ok
}

// Themes lists the available theme names.
func (c *Catalogue) Themes() []string {
	names := make([]string, 0, len(c.themes))
	for name := range c.themes {
		names = append(names, name)
	}
	return names
}

// Choices returns n distinct random words from the theme. Unknown
// themes fall back to "general".
func (c *Catalogue) Choices(theme string, n int) []string {
	list, ok := c.themes[theme]
	if !ok {
		list = c.themes["general"]
	}
	if n > len(list) {
		n = len(list)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	picked := make([]string, 0, n)
	seen := make(map[int]struct{}, n)
	for len(picked) < n {
		i := c.rng.Intn(len(list))
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		picked = append(picked, list[i])
	}
	return picked
}

// Shuffle permutes ids in place with the catalogue's rng. The engine
// uses it to fix the drawer rotation once per game.
func (c *Catalogue) Shuffle(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

// RandomMaskedIndex picks one still-masked position in masked, or -1
// when nothing is left to reveal.
func (c *Catalogue) RandomMaskedIndex(masked string) int {
	positions := maskedPositions(masked)
	if len(positions) == 0 {
		return -1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return positions[c.rng.Intn(len(positions))]
}
