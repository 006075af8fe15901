package batch

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thedavidhackett/draft-two/internal/workitem"
)

func TestEncode(t *testing.T) {
	temp := 0.0
	reqs := []Request{
		{CustomID: "a", Model: "gpt-4-turbo", Messages: []Message{{Role: "user", Content: "<b>&"}}, Temperature: &temp},
		{CustomID: "b", Model: "gpt-4-turbo", Messages: []Message{{Role: "user", Content: "two"}}},
	}

	data, err := Encode(reqs, "/v1/chat/completions")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"content":"<b>&"`)
	assert.NotContains(t, lines[1], "temperature")

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "a", first["custom_id"])
	assert.Equal(t, "POST", first["method"])
	assert.Equal(t, "/v1/chat/completions", first["url"])
	body := first["body"].(map[string]any)
	assert.Equal(t, "gpt-4-turbo", body["model"])
	assert.Equal(t, 0.0, body["temperature"])
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	reqs := requestsFor("one", "two", "three")
	data, err := Encode(reqs, "/v1/chat/completions")
	require.NoError(t, err)

	// Echo each request back as a result line, the way the service answers.
	var out []string
	for _, raw := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var rl requestLine
		require.NoError(t, json.Unmarshal([]byte(raw), &rl))
		out = append(out, okLine(rl.CustomID, "re: "+rl.Body.Messages[0].Content))
	}

	for i, raw := range out {
		line := DecodeLine(i+1, raw)
		require.False(t, line.Malformed(), "line %d: %v", i+1, line.Err)
		assert.Equal(t, reqs[i].CustomID, line.Result.CustomID)
		assert.Equal(t, "re: "+string(reqs[i].CustomID), line.Result.Content)
	}
}

func TestDecodeLine(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		malformed bool
		want      Result
	}{
		{
			name: "ok",
			raw:  okLine("case_1", "Report text"),
			want: Result{CustomID: "case_1", Content: "Report text"},
		},
		{
			name: "request error",
			raw:  errLine("case_2", "rate_limit_exceeded", "slow down"),
			want: Result{CustomID: "case_2", Err: "rate_limit_exceeded: slow down"},
		},
		{
			name: "error status in body",
			raw:  `{"custom_id":"case_3","response":{"status_code":400,"body":{"error":{"message":"bad model"}}}}`,
			want: Result{CustomID: "case_3", Err: "bad model"},
		},
		{name: "not json", raw: `{"custom_id": "x", `, malformed: true},
		{name: "no custom id", raw: `{"response":{"body":{}}}`, malformed: true},
		{name: "no response", raw: `{"custom_id":"x"}`, malformed: true},
		{name: "no choices", raw: `{"custom_id":"x","response":{"status_code":200,"body":{"choices":[]}}}`, malformed: true},
		{name: "null content", raw: `{"custom_id":"x","response":{"status_code":200,"body":{"choices":[{"message":{"content":null}}]}}}`, malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := DecodeLine(7, tt.raw)
			assert.Equal(t, 7, line.Number)
			assert.Equal(t, tt.raw, line.Raw)
			if tt.malformed {
				assert.True(t, line.Malformed())
				assert.Error(t, line.Err)
				return
			}
			require.False(t, line.Malformed(), "unexpected error: %v", line.Err)
			assert.Equal(t, tt.want, *line.Result)
		})
	}
}

func TestSplitLines(t *testing.T) {
	got := splitLines([]byte("a\r\n\nb\n"))
	assert.Equal(t, []string{"a", "", "b", ""}, got)
	assert.Equal(t, workitem.Key("k"), DecodeLine(1, okLine("k", "v")).Result.CustomID)
}
