package mimetype

import "testing"

func TestResolve(t *testing.T) {
	testCases := []struct {
		ext      string
		expected string
		ok       bool
	}{
		{"jpg", "image/jpeg", true},
		{".JPEG", "image/jpeg", true},
		{"png", "image/png", true},
		{"txt", "text/plain", true},
		{"mp4", "video/mp4", true},
		{"gz", "application/gzip", true},
		{"", "", false},
		{".", "", false},
		{"unknownext", "", false},
	}
	for _, tc := range testCases {
		got, ok := Resolve(tc.ext)
		if got != tc.expected || ok != tc.ok {
			t.Fatalf("Resolve(%q): expect (%q, %v), got (%q, %v)", tc.ext, tc.expected, tc.ok, got, ok)
		}
	}
}

func TestIsImage(t *testing.T) {
	if !IsImage("image/png") || !IsImage("IMAGE/JPEG") {
		t.Fatal("expected image types to be detected")
	}
	if IsImage("application/octet-stream") {
		t.Fatal("octet-stream is not an image")
	}
}
