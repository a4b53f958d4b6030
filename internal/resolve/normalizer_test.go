package resolve

import "testing"

func TestNormalizeStripsKnownTokens(t *testing.T) {
	n := NewDefaultNormalizer()

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"platform suffix", "The Last of Us PS4", "The Last of Us"},
		{"platform with spaces", "Gran Turismo 7 PlayStation 5", "Gran Turismo 7"},
		{"publisher", "Nintendo Mario Kart 8", "Mario Kart 8"},
		{"case insensitive", "mario kart 8 nintendo switch", "mario kart 8"},
		{"multiple tokens", "Sony PlayStation 4 Bloodborne", "Bloodborne"},
		{"no tokens unchanged", "Hollow Knight", "Hollow Knight"},
		{"partial word untouched", "PS4ever", "PS4ever"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.title); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdentityWithoutTokens(t *testing.T) {
	n := NewNormalizer(nil, nil)
	for _, title := range []string{"", "Okami", "Shadow of the Colossus"} {
		if got := n.Normalize(title); got != title {
			t.Errorf("Normalize(%q) = %q, want input unchanged", title, got)
		}
	}
}
