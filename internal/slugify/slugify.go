package slugify

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slug length budget. Four characters are held back so a collision
// counter can be appended without overflowing the column.
const (
	maxLength     = 60
	counterOffset = 4
	maxAttempts   = 1000
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make builds a URL-safe slug from a value: accents folded, lowercased,
// runs of non-alphanumerics collapsed to single hyphens.
func Make(value string) string {
	folded, _, err := transform.String(stripAccents, value)
	if err != nil {
		folded = value
	}

	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxLength-counterOffset {
		slug = strings.Trim(slug[:maxLength-counterOffset], "-")
	}
	return slug
}

// Slugger produces unique slugs against an existence check plus the set
// of slugs already reserved during the current bulk operation.
type Slugger struct {
	exists   func(slug string) bool
	reserved map[string]struct{}
}

// New returns a Slugger. exists reports whether a slug is already taken
// in the store; it may be nil when no store check is needed.
func New(exists func(slug string) bool) *Slugger {
	return &Slugger{
		exists:   exists,
		reserved: make(map[string]struct{}),
	}
}

func (s *Slugger) taken(slug string) bool {
	if _, ok := s.reserved[slug]; ok {
		return true
	}
	return s.exists != nil && s.exists(slug)
}

// Slug returns a unique slug for value and reserves it. Values that slug
// to nothing, or that collide too many times, fall back to a random uuid.
func (s *Slugger) Slug(value string) string {
	base := Make(value)
	if base == "" {
		return s.reserve(uuid.NewString())
	}

	slug := base
	for counter := 1; s.taken(slug); counter++ {
		if counter == maxAttempts {
			return s.reserve(uuid.NewString())
		}
		slug = base + "-" + strconv.Itoa(counter)
	}
	return s.reserve(slug)
}

func (s *Slugger) reserve(slug string) string {
	s.reserved[slug] = struct{}{}
	return slug
}
