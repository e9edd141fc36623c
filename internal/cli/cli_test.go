package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forPelevin/shortsfinder/internal/types"
)

func fixturePath() string {
	return filepath.Join("..", "itest", "testdata", "all_transcripts.json")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRoot()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestClipsCommand(t *testing.T) {
	out, err := execute(t, "clips", "--data", fixturePath(), "--min-score", "0", "--limit", "3", "--log-level", "error")
	if err != nil {
		t.Fatalf("clips: %v", err)
	}
	var res types.ClipsResponse
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(res.Clips) != 3 || res.Metadata.EpisodesProcessed != 2 {
		t.Fatalf("unexpected response: %+v", res.Metadata)
	}
	if res.Metadata.TotalClipsAnalyzed != 8 {
		t.Fatalf("expected 8 segments analyzed, got %d", res.Metadata.TotalClipsAnalyzed)
	}
}

func TestClipsCommand_EpisodeAndSpeaker(t *testing.T) {
	out, err := execute(t, "clips", "--data", fixturePath(), "--episode", "ep001", "--speaker", "sarah", "--min-score", "0", "--log-level", "error")
	if err != nil {
		t.Fatalf("clips: %v", err)
	}
	var res types.ClipsResponse
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(res.Clips) == 0 {
		t.Fatalf("expected clips for speaker")
	}
	for _, c := range res.Clips {
		if c.EpisodeID != "ep001" || !strings.Contains(strings.ToLower(c.Speaker), "sarah") {
			t.Fatalf("filter leaked clip %+v", c)
		}
	}
}

func TestArgsValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown source", []string{"clips", "--source", "redis"}, "config: unknown source"},
		{"unknown flag", []string{"clips", "--wat"}, "unknown flag: --wat"},
		{"positional args", []string{"clips", "extra"}, `unknown command "extra"`},
		{"missing data", []string{"clips", "--data", filepath.Join(t.TempDir(), "none.json")}, "transcript data not found"},
		{"bad limit", []string{"clips", "--limit", "nope"}, `invalid argument "nope" for "--limit"`},
		{"nan max", []string{"clips", "--data", fixturePath(), "--max", "NaN", "--log-level", "error"}, "durations must be finite"},
		{"inf min", []string{"clips", "--data", fixturePath(), "--min=-Inf", "--log-level", "error"}, "durations must be finite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
