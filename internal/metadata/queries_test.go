package metadata

import (
	"reflect"
	"testing"
)

func TestSearchVariants(t *testing.T) {
	tests := []struct {
		name   string
		artist string
		title  string
		want   []string
	}{
		{
			name:   "plain pair both orders",
			artist: "The Weeknd",
			title:  "Blinding Lights",
			want:   []string{"The Weeknd Blinding Lights", "Blinding Lights The Weeknd"},
		},
		{
			name:   "parenthetical adds stripped pair",
			artist: "Artist",
			title:  "Song (Radio Version)",
			want: []string{
				"Artist Song (Radio Version)",
				"Song (Radio Version) Artist",
				"Artist Song",
				"Song Artist",
			},
		},
		{
			name:   "remix parenthetical is not stripped",
			artist: "Artist",
			title:  "Song (Club Remix)",
			want:   []string{"Artist Song (Club Remix)", "Song (Club Remix) Artist"},
		},
		{
			name:   "feat tail dropped",
			artist: "Artist",
			title:  "Song feat. Other",
			want: []string{
				"Artist Song feat. Other",
				"Song feat. Other Artist",
				"Artist Song",
				"Song Artist",
			},
		},
		{
			name:   "missing artist yields nothing",
			artist: "",
			title:  "Song",
			want:   nil,
		},
		{
			name:   "case-insensitive dedup",
			artist: "ABBA",
			title:  "abba",
			want:   []string{"ABBA abba"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SearchVariants(tt.artist, tt.title)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SearchVariants(%q, %q) = %v, want %v", tt.artist, tt.title, got, tt.want)
			}
			if len(got) > 4 {
				t.Errorf("got %d variants, cap is 4", len(got))
			}
		})
	}
}

func TestStripParensSoft(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Song (Radio Version)", "Song"},
		{"Song [Bonus Track]", "Song"},
		{"Song (Club Remix)", "Song (Club Remix)"},
		{"Song (Acoustic Cover)", "Song (Acoustic Cover)"},
		{"Song", "Song"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripParensSoft(tt.in); got != tt.want {
			t.Errorf("StripParensSoft(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDropFeatTail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Song feat. Other", "Song"},
		{"Song (feat. Other)", "Song"},
		{"Song ft. Other", "Song"},
		{"Song featuring Other Artist", "Song"},
		{"Song", "Song"},
	}

	for _, tt := range tests {
		if got := DropFeatTail(tt.in); got != tt.want {
			t.Errorf("DropFeatTail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
