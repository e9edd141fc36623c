package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/forPelevin/shortsfinder/internal/ports"
	"github.com/forPelevin/shortsfinder/internal/types"
)

// Adapter reads episodes from an all_transcripts.json style file: a JSON
// array of episodes with embedded transcripts.
type Adapter struct {
	path           string
	historicalPath string
}

func New(path, historicalPath string) *Adapter {
	return &Adapter{path: path, historicalPath: historicalPath}
}

func (a *Adapter) Episodes(ctx context.Context) ([]types.Episode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(a.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("transcript data not found at %s", a.path)
		}
		return nil, fmt.Errorf("read transcripts: %w", err)
	}
	var eps []types.Episode
	if err := json.Unmarshal(b, &eps); err != nil {
		return nil, fmt.Errorf("parse transcripts %s: %w", a.path, err)
	}
	return eps, nil
}

func (a *Adapter) Episode(ctx context.Context, id string) (types.Episode, error) {
	eps, err := a.Episodes(ctx)
	if err != nil {
		return types.Episode{}, err
	}
	for _, ep := range eps {
		if ep.EpisodeID == id {
			return ep, nil
		}
	}
	return types.Episode{}, fmt.Errorf("episode %s: %w", id, ports.ErrNotFound)
}

// HistoricalPerformance returns the optional clip performance records as raw
// JSON objects. A missing file yields (nil, false, nil).
func (a *Adapter) HistoricalPerformance(ctx context.Context) ([]json.RawMessage, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if a.historicalPath == "" {
		return nil, false, nil
	}
	b, err := os.ReadFile(a.historicalPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read historical performance: %w", err)
	}
	var out []json.RawMessage
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false, fmt.Errorf("parse historical performance %s: %w", a.historicalPath, err)
	}
	return out, true, nil
}
