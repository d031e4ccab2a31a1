package discovery

import "testing"

func TestEncodeDecodeProjectPath(t *testing.T) {
	tests := []struct {
		path string
		id   string
	}{
		{"/Users/dev/myapp", "-Users-dev-myapp"},
		{"/home/alex/work/api", "-home-alex-work-api"},
		{"/", "-"},
	}
	for _, tt := range tests {
		if got := EncodeProjectPath(tt.path); got != tt.id {
			t.Errorf("EncodeProjectPath(%q) = %q, want %q", tt.path, got, tt.id)
		}
		if got := DecodeProjectPath(tt.id); got != tt.path {
			t.Errorf("DecodeProjectPath(%q) = %q, want %q", tt.id, got, tt.path)
		}
	}
}

func TestDecodeIsBestEffortForDashedNames(t *testing.T) {
	// A dash in the original directory name is indistinguishable from a
	// separator after encoding; decoding is display-only
	id := EncodeProjectPath("/Users/dev/my-app")
	if id != "-Users-dev-my-app" {
		t.Fatalf("id = %q", id)
	}
	if DecodeProjectPath(id) != "/Users/dev/my/app" {
		t.Errorf("decode = %q", DecodeProjectPath(id))
	}
}

func TestProjectSlug(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/Users/dev/MyApp", "myapp"},
		{"/Users/dev/my-app", "my-app"},
		{"/", "root"},
		{".", "root"},
	}
	for _, tt := range tests {
		if got := ProjectSlug(tt.path); got != tt.want {
			t.Errorf("ProjectSlug(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSlugDiffersFromID(t *testing.T) {
	// Sibling dirs sharing a basename produce the same slug but distinct ids
	a := "/Users/dev/client/app"
	b := "/Users/dev/server/app"
	if ProjectSlug(a) != ProjectSlug(b) {
		t.Error("slugs should collide by design")
	}
	if EncodeProjectPath(a) == EncodeProjectPath(b) {
		t.Error("ids must never collide")
	}
}
