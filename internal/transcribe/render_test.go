package transcribe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		segments []Segment
		want     string
	}{
		{
			name:     "plain segments joined by spaces",
			segments: []Segment{{Text: " Hello there. "}, {Text: ""}, {Text: "How are you?\n"}},
			want:     "Hello there. How are you?",
		},
		{
			name: "speaker turns merged",
			segments: []Segment{
				{Speaker: "A", Text: "I saw a car."},
				{Speaker: "A", Text: "It was red."},
				{Speaker: "B", Text: "When?"},
				{Speaker: "A", Text: "At noon."},
			},
			want: "A: I saw a car. It was red.\nB: When?\nA: At noon.",
		},
		{
			name:     "missing speaker in diarized output",
			segments: []Segment{{Speaker: "A", Text: "Hi"}, {Text: "mumble"}},
			want:     "A: Hi\nUNKNOWN: mumble",
		},
		{name: "empty", segments: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(Transcript{Segments: tt.segments}); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSRT(t *testing.T) {
	srt := "1\r\n00:00:00,000 --> 00:00:02,500\r\nHello\r\nthere\r\n\r\n2\n00:01:02,250 --> 00:01:03,000\nSecond cue\n"

	segments, err := parseSRT(srt)
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		{Start: 0, End: 2.5, Text: "Hello there"},
		{Start: 62.25, End: 63, Text: "Second cue"},
	}, segments)

	_, err = parseSRT("1\n00:00 --> 00:01\ntext\n")
	assert.Error(t, err)
}
