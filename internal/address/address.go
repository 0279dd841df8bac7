package address

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Scheme prefixes every address.
const Scheme = "ign:"

// Alias tokens accepted after "@".
const (
	AliasLatest = "latest"
	AliasBest   = "best"
)

var (
	// ErrInvalid is returned for text that does not follow the grammar.
	ErrInvalid = errors.New("invalid address")
	// ErrAliasUnresolved is returned when decoding an address whose version
	// is an alias; resolving it requires the asset's version set.
	ErrAliasUnresolved = errors.New("version alias requires resolution")
	// ErrOutsideRoot is returned when encoding a path that is not under the root.
	ErrOutsideRoot = errors.New("path outside root")
	// ErrNotAddressable is returned for directories whose kind or position
	// has no address form.
	ErrNotAddressable = errors.New("path not addressable")
)

var versionPattern = regexp.MustCompile(`^v([0-9]+)$`)

// ParseVersion extracts the number from a v<N> directory name.
func ParseVersion(name string) (int, bool) {
	m := versionPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// VersionName formats n as a zero padded v<N> directory name.
func VersionName(n, padding int) string {
	if padding < 1 {
		padding = 1
	}
	return fmt.Sprintf("v%0*d", padding, n)
}

// Address is a parsed ign: address.
type Address struct {
	Project string
	Group   string
	Context string
	Task    string
	Name    string
	// Version holds a literal v<N> token.
	Version string
	// Alias holds latest or best.
	Alias string

	slots int
}

// Slots returns how many colon separated slots the address carries.
func (a Address) Slots() int {
	return a.slots
}

// HasAlias reports whether the version part is an alias.
func (a Address) HasAlias() bool {
	return a.Alias != ""
}

// Unversioned returns a copy with the version and alias removed.
func (a Address) Unversioned() Address {
	a.Version = ""
	a.Alias = ""
	return a
}

// WithVersion returns a copy pointing at a literal version directory.
func (a Address) WithVersion(version string) Address {
	a.Version = version
	a.Alias = ""
	return a
}

// String renders the address in canonical form.
func (a Address) String() string {
	parts := []string{a.Project}
	if a.slots >= 2 {
		parts = append(parts, a.Group)
	}
	if a.slots >= 3 {
		parts = append(parts, a.Context)
	}
	if a.slots >= 4 {
		parts = append(parts, a.Task)
	}
	if a.slots >= 5 {
		parts = append(parts, a.Name)
	}
	out := Scheme + strings.Join(parts, ":")
	switch {
	case a.Alias != "":
		out += "@" + a.Alias
	case a.Version != "":
		out += "@" + a.Version
	}
	return out
}

// IsAddress reports whether value looks like an address rather than a path.
func IsAddress(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), Scheme)
}

// Parse parses text into an Address.
func Parse(text string) (Address, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, Scheme) {
		return Address{}, fmt.Errorf("%w: %q missing %s prefix", ErrInvalid, text, Scheme)
	}
	body := strings.TrimPrefix(text, Scheme)

	var version string
	if at := strings.Index(body, "@"); at >= 0 {
		version = body[at+1:]
		body = body[:at]
		if strings.Contains(version, "@") {
			return Address{}, fmt.Errorf("%w: %q has more than one version", ErrInvalid, text)
		}
	}

	slots := strings.Split(body, ":")
	if len(slots) > 5 {
		return Address{}, fmt.Errorf("%w: %q has %d slots", ErrInvalid, text, len(slots))
	}

	a := Address{slots: len(slots)}
	a.Project = slots[0]
	if err := checkSegment("project", a.Project); err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalid, text, err)
	}
	if len(slots) >= 2 {
		a.Group = slots[1]
		if err := checkSegment("group", a.Group); err != nil {
			return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalid, text, err)
		}
	}
	if len(slots) >= 3 {
		a.Context = slots[2]
		if err := checkContext(a.Context, len(slots) == 3); err != nil {
			return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalid, text, err)
		}
	}
	if len(slots) >= 4 {
		a.Task = slots[3]
		if err := checkSegment("task", a.Task); err != nil {
			return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalid, text, err)
		}
	}
	if len(slots) == 5 {
		a.Name = slots[4]
		if err := checkSegment("name", a.Name); err != nil {
			return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalid, text, err)
		}
	}

	if version != "" || strings.HasSuffix(text, "@") {
		if len(slots) != 5 {
			return Address{}, fmt.Errorf("%w: %q: version only valid on asset addresses", ErrInvalid, text)
		}
		switch {
		case version == AliasLatest || version == AliasBest:
			a.Alias = version
		case versionPattern.MatchString(version):
			if _, ok := ParseVersion(version); !ok {
				return Address{}, fmt.Errorf("%w: %q: version must be positive", ErrInvalid, text)
			}
			a.Version = version
		default:
			return Address{}, fmt.Errorf("%w: %q: unknown version token %q", ErrInvalid, text, version)
		}
	}
	return a, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// constants.
func MustParse(text string) Address {
	a, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return a
}

func checkSegment(label, value string) error {
	if value == "" {
		return fmt.Errorf("empty %s", label)
	}
	if strings.ContainsAny(value, `/\`) {
		return fmt.Errorf("%s %q contains a path separator", label, value)
	}
	if value == "." || value == ".." {
		return fmt.Errorf("%s %q is not a valid name", label, value)
	}
	return nil
}

func checkContext(value string, required bool) error {
	if value == "" {
		if required {
			return errors.New("empty context")
		}
		return nil
	}
	if strings.Contains(value, `\`) {
		return fmt.Errorf("context %q contains a backslash", value)
	}
	for _, segment := range strings.Split(value, "/") {
		if err := checkSegment("context segment", segment); err != nil {
			return err
		}
	}
	return nil
}
