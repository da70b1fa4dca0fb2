package naming

import (
	"crypto/rand"
	"io"
	"math/big"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is a public filename format.
type Kind string

const (
	Random Kind = "random"
	Name   Kind = "name"
	Date   Kind = "date"
	UUID   Kind = "uuid"
	Gfycat Kind = "gfycat"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// zero-width characters used for invisible aliases
var invisibleChars = []rune{'\u200b', '\u2060', '\u200c', '\u200d'}

// ParseKind maps a requested format to a known kind. Unknown values fall back to Random.
func ParseKind(raw string) Kind {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case Random, Name, Date, UUID, Gfycat:
		return k
	default:
		return Random
	}
}

// Formatter generates public base names. The zero value is not usable; use New.
type Formatter struct {
	length     int
	dateLayout string
	now        func() time.Time
	rand       io.Reader
}

type Option func(*Formatter)

// WithClock overrides the clock used by the date kind.
func WithClock(now func() time.Time) Option {
	return func(f *Formatter) { f.now = now }
}

// WithRand overrides the random source. It must be cryptographically adequate in production.
func WithRand(r io.Reader) Option {
	return func(f *Formatter) { f.rand = r }
}

// New builds a Formatter producing random tokens of length characters.
func New(length int, dateLayout string, opts ...Option) *Formatter {
	if length <= 0 {
		length = 6
	}
	if dateLayout == "" {
		dateLayout = "2006-01-02_15-04-05"
	}
	f := &Formatter{
		length:     length,
		dateLayout: dateLayout,
		now:        time.Now,
		rand:       rand.Reader,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format returns the public base name (no extension) for an upload.
func (f *Formatter) Format(kind Kind, originalName string) (string, error) {
	switch ParseKind(string(kind)) {
	case Name:
		return BaseName(originalName), nil
	case Date:
		return f.now().Format(f.dateLayout), nil
	case UUID:
		id, err := uuid.NewRandomFromReader(f.rand)
		if err != nil {
			return "", err
		}
		return id.String(), nil
	case Gfycat:
		return f.gfycat()
	default:
		return f.randomString(alphanumeric, f.length)
	}
}

// Invisible returns a token made of zero-width characters.
func (f *Formatter) Invisible(length int) (string, error) {
	if length <= 0 {
		length = f.length
	}
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := f.intn(len(invisibleChars))
		if err != nil {
			return "", err
		}
		b.WriteRune(invisibleChars[n])
	}
	return b.String(), nil
}

// BaseName strips directories and the last extension from a file name.
func BaseName(originalName string) string {
	base := path.Base(strings.ReplaceAll(originalName, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Extension returns the lowercase extension of name without the dot.
func Extension(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := path.Ext(base)
	if ext == "" || ext == base {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func (f *Formatter) randomString(chars string, length int) (string, error) {
	out := make([]byte, length)
	for i := range out {
		n, err := f.intn(len(chars))
		if err != nil {
			return "", err
		}
		out[i] = chars[n]
	}
	return string(out), nil
}

func (f *Formatter) gfycat() (string, error) {
	var words []string
	for i := 0; i < 2; i++ {
		n, err := f.intn(len(adjectives))
		if err != nil {
			return "", err
		}
		words = append(words, adjectives[n])
	}
	n, err := f.intn(len(animals))
	if err != nil {
		return "", err
	}
	words = append(words, animals[n])
	return strings.Join(words, ""), nil
}

func (f *Formatter) intn(n int) (int, error) {
	v, err := rand.Int(f.rand, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
