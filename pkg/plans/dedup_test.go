package plans

import "testing"

func TestFingerprintIgnoresWhitespace(t *testing.T) {
	a := "# Plan\n\nDo the   thing\n"
	b := "# Plan Do the thing"
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("reflowed content must fingerprint identically")
	}
	if Fingerprint(a) == Fingerprint("# Plan Do another thing") {
		t.Error("different content must fingerprint differently")
	}
}

func TestNormalizeTitle(t *testing.T) {
	if NormalizeTitle("  Auth   REDESIGN ") != "auth redesign" {
		t.Errorf("got %q", NormalizeTitle("  Auth   REDESIGN "))
	}
}

func TestLengthBucket(t *testing.T) {
	tests := []struct {
		length int
		want   int
	}{
		{0, 0},
		{500, 0},
		{501, 1},
		{2000, 1},
		{2001, 2},
		{50000, 2},
	}
	for _, tt := range tests {
		if got := LengthBucket(tt.length); got != tt.want {
			t.Errorf("LengthBucket(%d) = %d, want %d", tt.length, got, tt.want)
		}
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "replace session cookies with tokens", "replace session cookies with tokens", 1.0},
		{"disjoint", "alpha bravo charlie", "delta echo foxtrot", 0.0},
		{"both empty", "", "", 1.0},
		{"one empty", "something here", "", 0.0},
		{"short words ignored", "the a an it replace", "replace", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Jaccard(tt.a, tt.b); got != tt.want {
				t.Errorf("Jaccard = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJaccardPartialOverlap(t *testing.T) {
	// 3 shared words, union of 5
	got := Jaccard("alpha bravo charlie delta", "alpha bravo charlie echo5")
	want := 3.0 / 5.0
	if got != want {
		t.Errorf("Jaccard = %v, want %v", got, want)
	}
}
