// Package components assembles the files inside an asset version directory
// into deliverable components: single files or frame sequences.
package components

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// DefaultTempInfix marks files that are still being written.
const DefaultTempInfix = ".tmp"

// Component is one deliverable inside a version directory.
type Component struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Extension  string `json:"extension"`
	IsSequence bool   `json:"is_sequence"`
	FirstFrame int    `json:"first_frame,omitempty"`
	LastFrame  int    `json:"last_frame,omitempty"`
	Padding    int    `json:"padding,omitempty"`
	FrameCount int    `json:"frame_count,omitempty"`
}

// Options controls which files take part in assembly.
type Options struct {
	TempInfix string
}

// Exclude reports whether a filename is left out of assembly.
func (o Options) Exclude(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	infix := o.TempInfix
	if infix == "" {
		infix = DefaultTempInfix
	}
	return strings.Contains(name, infix)
}

type frameToken struct {
	prefix string
	digits string
	suffix string
}

// splitFrame locates the last run of digits in the stem of name. The
// extension is excluded so "clip.mp4" is not mistaken for frame 4.
func splitFrame(name string) (frameToken, bool) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	end := -1
	for i := len(stem) - 1; i >= 0; i-- {
		if unicode.IsDigit(rune(stem[i])) {
			end = i + 1
			break
		}
	}
	if end < 0 {
		return frameToken{}, false
	}
	start := end
	for start > 0 && unicode.IsDigit(rune(stem[start-1])) {
		start--
	}
	return frameToken{
		prefix: stem[:start],
		digits: stem[start:end],
		suffix: stem[end:] + ext,
	}, true
}

type group struct {
	key    string
	tokens []frameToken
	names  []string
}

// Assemble groups filenames found in dir. Names sharing a prefix and suffix
// around their last numeric run form a sequence when there are at least two
// of them; everything else becomes a single-file component. The result is
// sorted by component name.
func Assemble(dir string, names []string) []Component {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	groups := map[string]*group{}
	var order []string
	var singles []string
	for _, name := range sorted {
		tok, ok := splitFrame(name)
		if !ok {
			singles = append(singles, name)
			continue
		}
		key := tok.prefix + "\x00" + tok.suffix
		g, exists := groups[key]
		if !exists {
			g = &group{key: key}
			groups[key] = g
			order = append(order, key)
		}
		g.tokens = append(g.tokens, tok)
		g.names = append(g.names, name)
	}

	out := make([]Component, 0, len(order)+len(singles))
	for _, key := range order {
		g := groups[key]
		if len(g.names) < 2 {
			singles = append(singles, g.names...)
			continue
		}
		out = append(out, sequenceComponent(dir, g))
	}
	for _, name := range singles {
		out = append(out, Component{
			Name:      name,
			Path:      filepath.Join(dir, name),
			Extension: strings.ToLower(filepath.Ext(name)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

func sequenceComponent(dir string, g *group) Component {
	first, last := -1, -1
	firstName := g.names[0]
	padding := len(g.tokens[0].digits)
	for i, tok := range g.tokens {
		n, err := strconv.Atoi(tok.digits)
		if err != nil {
			continue
		}
		if first < 0 || n < first {
			first = n
			firstName = g.names[i]
		}
		if n > last {
			last = n
		}
		if len(tok.digits) != padding {
			padding = 1
		}
	}
	tok := g.tokens[0]
	return Component{
		Name:       tok.prefix + strings.Repeat("#", padding) + tok.suffix,
		Path:       filepath.Join(dir, firstName),
		Extension:  strings.ToLower(filepath.Ext(firstName)),
		IsSequence: true,
		FirstFrame: first,
		LastFrame:  last,
		Padding:    padding,
		FrameCount: len(g.names),
	}
}

// Pick returns the first component whose extension appears earliest in
// preference. Preference entries are compared case-insensitively and should
// include the leading dot.
func Pick(items []Component, preference []string) (Component, bool) {
	best := -1
	var chosen Component
	for _, c := range items {
		for rank, ext := range preference {
			if !strings.EqualFold(c.Extension, ext) {
				continue
			}
			if best < 0 || rank < best {
				best = rank
				chosen = c
			}
			break
		}
	}
	return chosen, best >= 0
}
