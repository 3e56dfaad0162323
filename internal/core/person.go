package core

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Person is one of the two household members or the shared household.
// The zero value is not a valid person.
type Person uint8

const (
	UserA Person = iota + 1
	UserB
	Household
)

var personTokens = map[Person]string{
	UserA:     "user_a",
	UserB:     "user_b",
	Household: "household",
}

// IsValid reports whether p is UserA, UserB or Household.
func (p Person) IsValid() bool {
	_, ok := personTokens[p]
	return ok
}

// IsMember reports whether p is one of the two people (not the household).
func (p Person) IsMember() bool { return p == UserA || p == UserB }

// Other returns the other member. It returns the zero Person for Household.
func (p Person) Other() Person {
	switch p {
	case UserA:
		return UserB
	case UserB:
		return UserA
	default:
		return 0
	}
}

func (p Person) String() string {
	if t, ok := personTokens[p]; ok {
		return t
	}
	return fmt.Sprintf("person(%d)", uint8(p))
}

// ParsePerson parses a storage token (user_a, user_b, household).
func ParsePerson(s string) (Person, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, t := range personTokens {
		if t == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPerson, s)
}

func (p Person) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPerson, uint8(p))
	}
	return []byte(personTokens[p]), nil
}

func (p *Person) UnmarshalText(b []byte) error {
	parsed, err := ParsePerson(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Names maps the two members to their display names.
type Names struct {
	A string
	B string
}

// DefaultHouseholdName is the display name of the shared household.
const DefaultHouseholdName = "Household"

// Name returns the display name for p.
func (n Names) Name(p Person) string {
	switch p {
	case UserA:
		return n.A
	case UserB:
		return n.B
	case Household:
		return DefaultHouseholdName
	default:
		return p.String()
	}
}

// Parse resolves either a storage token or a display name. Matching ignores
// case and accents, so "rosangela" finds "Rosângela".
func (n Names) Parse(s string) (Person, error) {
	if p, err := ParsePerson(s); err == nil {
		return p, nil
	}
	key := Fold(s)
	switch {
	case key == "":
	case key == Fold(n.A):
		return UserA, nil
	case key == Fold(n.B):
		return UserB, nil
	case key == Fold(DefaultHouseholdName), key == "shared", key == "casa":
		return Household, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPerson, s)
}

// Fold lowercases s and strips diacritics for loose comparisons.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	return strings.ToLower(out)
}
