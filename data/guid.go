package data

import (
	"encoding/binary"
	"strings"

	"github.com/google/uuid"
)

// GUID is a 128-bit asset identifier stored as two 64-bit words.
// The zero value is the invalid sentinel; every generated identifier
// is drawn from a version 4 UUID, so uniqueness is probabilistic and
// requires no coordination between processes.
type GUID struct {
	Hi uint64
	Lo uint64
}

// NewGUID returns a freshly generated random identifier.
func NewGUID() GUID {
	u := uuid.New()
	return GUID{
		Hi: binary.BigEndian.Uint64(u[0:8]),
		Lo: binary.BigEndian.Uint64(u[8:16]),
	}
}

// ParseGUID parses the canonical 36-character hyphenated hex form.
// Parsing is case-insensitive. Returns (GUID{}, false) on malformed
// input instead of an error, since callers treat that as "no id".
func ParseGUID(s string) (GUID, bool) {
	if len(s) != 36 {
		return GUID{}, false
	}

	u, err := uuid.Parse(s)
	if err != nil {
		return GUID{}, false
	}

	return GUID{
		Hi: binary.BigEndian.Uint64(u[0:8]),
		Lo: binary.BigEndian.Uint64(u[8:16]),
	}, true
}

// IsValid reports whether the identifier is non-zero.
func (g GUID) IsValid() bool {
	return g.Hi != 0 || g.Lo != 0
}

// String formats the identifier as uppercase 8-4-4-4-12 hex.
func (g GUID) String() string {
	var u uuid.UUID
	binary.BigEndian.PutUint64(u[0:8], g.Hi)
	binary.BigEndian.PutUint64(u[8:16], g.Lo)

	return strings.ToUpper(u.String())
}

// Compare returns -1, 0 or 1 ordering lexicographically on (Hi, Lo).
// The ordering is independent of generation time.
func (g GUID) Compare(other GUID) int {
	switch {
	case g.Hi < other.Hi:
		return -1
	case g.Hi > other.Hi:
		return 1
	case g.Lo < other.Lo:
		return -1
	case g.Lo > other.Lo:
		return 1
	default:
		return 0
	}
}

// Less reports whether g orders before other.
func (g GUID) Less(other GUID) bool {
	return g.Compare(other) < 0
}

// MarshalText implements encoding.TextMarshaler so identifiers can be
// used as JSON object keys and string fields.
func (g GUID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *GUID) UnmarshalText(text []byte) error {
	parsed, ok := ParseGUID(string(text))
	if !ok {
		return ErrInvalidGUID
	}

	*g = parsed
	return nil
}
