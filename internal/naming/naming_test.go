package naming

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

func TestFormatKinds(t *testing.T) {
	fixed := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	f := New(8, "2006-01-02_15-04-05", WithClock(func() time.Time { return fixed }))

	name, err := f.Format(Name, "holiday/photo.final.png")
	if err != nil {
		t.Fatal(err)
	}
	if name != "photo.final" {
		t.Fatalf("name kind: expect photo.final, got %s", name)
	}

	date, err := f.Format(Date, "a.png")
	if err != nil {
		t.Fatal(err)
	}
	if date != "2024-03-09_14-05-07" {
		t.Fatalf("date kind: got %s", date)
	}

	id, err := f.Format(UUID, "a.png")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("uuid kind produced %q: %v", id, err)
	}

	random, err := f.Format(Random, "a.png")
	if err != nil {
		t.Fatal(err)
	}
	if len(random) != 8 {
		t.Fatalf("random kind: expect 8 chars, got %q", random)
	}
	for _, r := range random {
		if !strings.ContainsRune(alphanumeric, r) {
			t.Fatalf("random kind: unexpected char %q", r)
		}
	}

	gfy, err := f.Format(Gfycat, "a.png")
	if err != nil {
		t.Fatal(err)
	}
	if gfy == "" || strings.ContainsAny(gfy, " -_") {
		t.Fatalf("gfycat kind: got %q", gfy)
	}
}

func TestUnknownKindFallsBackToRandom(t *testing.T) {
	if ParseKind("emoji") != Random {
		t.Fatal("expected unknown kind to map to random")
	}
	if ParseKind(" NAME ") != Name {
		t.Fatal("expected kind parsing to ignore case and spaces")
	}
	f := New(5, "")
	out, err := f.Format(Kind("emoji"), "a.png")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 5 {
		t.Fatalf("expect random token of 5, got %q", out)
	}
}

func TestRandomTokensDiffer(t *testing.T) {
	f := New(12, "")
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		out, err := f.Format(Random, "")
		if err != nil {
			t.Fatal(err)
		}
		if seen[out] {
			t.Fatalf("duplicate token %s", out)
		}
		seen[out] = true
	}
}

func TestInvisible(t *testing.T) {
	f := New(6, "")
	out, err := f.Invisible(10)
	if err != nil {
		t.Fatal(err)
	}
	if utf8.RuneCountInString(out) != 10 {
		t.Fatalf("expect 10 runes, got %d", utf8.RuneCountInString(out))
	}
	for _, r := range out {
		found := false
		for _, c := range invisibleChars {
			if r == c {
				found = true
			}
		}
		if !found {
			t.Fatalf("visible rune %q in alias", r)
		}
	}
}

func TestExtensionAndBaseName(t *testing.T) {
	cases := []struct {
		in, base, ext string
	}{
		{"report.PDF", "report", "pdf"},
		{"archive.tar.gz", "archive.tar", "gz"},
		{"README", "README", ""},
		{".bashrc", ".bashrc", ""},
		{"C:\\temp\\shot.png", "shot", "png"},
	}
	for _, tc := range cases {
		if got := BaseName(tc.in); got != tc.base {
			t.Fatalf("BaseName(%s): expect %s, got %s", tc.in, tc.base, got)
		}
		if got := Extension(tc.in); got != tc.ext {
			t.Fatalf("Extension(%s): expect %s, got %s", tc.in, tc.ext, got)
		}
	}
}
