package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/forPelevin/shortsfinder/internal/domain/highlights"
	"github.com/forPelevin/shortsfinder/internal/ports"
	"github.com/forPelevin/shortsfinder/internal/types"
)

func testEpisodes() []types.Episode {
	return []types.Episode{
		{
			EpisodeID: "ep1",
			Title:     "Founders",
			Duration:  200,
			Transcript: []types.Segment{
				{ID: "1", StartTime: 0, EndTime: 12, Speaker: "Host", Text: "Welcome back to the show."},
				{ID: "2", StartTime: 12, EndTime: 52, Speaker: "Host", Text: "So what is the biggest mistake founders make?"},
				{ID: "3", StartTime: 52, EndTime: 100, Speaker: "Guest Ana", Text: "Hot take: they never talk to customers. 90% of startups skip it."},
				{ID: "4", StartTime: 100, EndTime: 150, Speaker: "Guest Ana", Text: "Here's how you fix it. First, call ten users. Second, write down what they say."},
			},
		},
		{
			EpisodeID: "ep2",
			Title:     "Pricing",
			Duration:  90,
			Transcript: []types.Segment{
				{ID: "1", StartTime: 0, EndTime: 45, Speaker: "Ben", Text: "Why do developers love clean code?"},
				{ID: "2", StartTime: 45, EndTime: 90, Speaker: "Ben", Text: "Thanks for listening, like and subscribe!"},
			},
		},
	}
}

type fakeCache struct {
	m       map[string][]byte
	gets    int
	sets    int
	failGet bool
}

func newFakeCache() *fakeCache { return &fakeCache{m: map[string][]byte{}} }

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.gets++
	if f.failGet {
		return nil, false, errors.New("boom")
	}
	v, ok := f.m[key]
	return v, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte) error {
	f.sets++
	f.m[key] = value
	return nil
}

func TestFindClips_AllEpisodes(t *testing.T) {
	uc := New(Deps{Episodes: testEpisodes(), Tuning: highlights.DefaultOptions()})
	q := DefaultQuery()
	q.MinScore = 0

	res, err := uc.FindClips(context.Background(), q)
	if err != nil {
		t.Fatalf("find clips: %v", err)
	}
	if len(res.Clips) == 0 {
		t.Fatalf("expected clips")
	}
	if res.Metadata.EpisodesProcessed != 2 || res.Metadata.TotalClipsAnalyzed != 6 {
		t.Fatalf("unexpected metadata: %+v", res.Metadata)
	}
	if res.Metadata.ClipsReturned != len(res.Clips) {
		t.Fatalf("clips_returned mismatch")
	}
	for i, c := range res.Clips {
		if c.Rank != i+1 {
			t.Fatalf("rank at %d = %d", i, c.Rank)
		}
		if !strings.HasPrefix(c.ClipID, "clip_"+c.EpisodeID+"_clip_") {
			t.Fatalf("clip id not namespaced: %s", c.ClipID)
		}
		if i > 0 && res.Clips[i-1].Score < c.Score {
			t.Fatalf("clips not sorted by score")
		}
	}
	if *res.Metadata.MaxScore != res.Clips[0].Score {
		t.Fatalf("max_score mismatch: %d vs %d", *res.Metadata.MaxScore, res.Clips[0].Score)
	}
}

func TestFindClips_EpisodeFilterAndLimit(t *testing.T) {
	uc := New(Deps{Episodes: testEpisodes()})
	q := DefaultQuery()
	q.EpisodeID = "ep2"
	q.MinScore = 0
	q.Limit = 1

	res, err := uc.FindClips(context.Background(), q)
	if err != nil {
		t.Fatalf("find clips: %v", err)
	}
	if len(res.Clips) != 1 || res.Clips[0].EpisodeID != "ep2" {
		t.Fatalf("unexpected clips: %+v", res.Clips)
	}
	if res.Metadata.EpisodesProcessed != 1 {
		t.Fatalf("expected 1 episode processed, got %d", res.Metadata.EpisodesProcessed)
	}
	// Question + love + complete + optimal length beats the penalized outro.
	if res.Clips[0].ClipID != "clip_ep2_clip_1" || res.Clips[0].Score != 73 {
		t.Fatalf("unexpected top clip: %+v", res.Clips[0])
	}
}

func TestFindClips_UnknownEpisode(t *testing.T) {
	uc := New(Deps{Episodes: testEpisodes()})
	q := DefaultQuery()
	q.EpisodeID = "missing"

	res, err := uc.FindClips(context.Background(), q)
	if err != nil {
		t.Fatalf("find clips: %v", err)
	}
	if len(res.Clips) != 0 || res.Metadata.EpisodesProcessed != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if res.Metadata.MinScore != nil || res.Metadata.AvgScore != nil {
		t.Fatalf("expected null score stats on empty result")
	}
	if res.Clips == nil {
		t.Fatalf("clips must encode as [] not null")
	}
}

func TestFindClips_SpeakerFilter(t *testing.T) {
	uc := New(Deps{Episodes: testEpisodes()})
	q := DefaultQuery()
	q.MinScore = 0
	q.Limit = 100
	q.Speaker = "ana"

	res, err := uc.FindClips(context.Background(), q)
	if err != nil {
		t.Fatalf("find clips: %v", err)
	}
	if len(res.Clips) == 0 {
		t.Fatalf("expected clips for speaker filter")
	}
	for _, c := range res.Clips {
		if !strings.Contains(strings.ToLower(c.Speaker), "ana") {
			t.Fatalf("speaker filter leaked %q", c.Speaker)
		}
	}
}

func TestFindClips_Cache(t *testing.T) {
	cache := newFakeCache()
	uc := New(Deps{Episodes: testEpisodes(), Cache: cache})
	q := DefaultQuery()
	q.MinScore = 0

	first, err := uc.FindClips(context.Background(), q)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first.Cached {
		t.Fatalf("first call must not be cached")
	}
	second, err := uc.FindClips(context.Background(), q)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !second.Cached || len(second.Clips) != len(first.Clips) {
		t.Fatalf("expected cached replay, got cached=%v clips=%d", second.Cached, len(second.Clips))
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache write, got %d", cache.sets)
	}

	q.Speaker = "Ben"
	third, err := uc.FindClips(context.Background(), q)
	if err != nil {
		t.Fatalf("third: %v", err)
	}
	if third.Cached {
		t.Fatalf("different speaker must not hit the cache")
	}
}

func TestFindClips_CacheFailureIsMiss(t *testing.T) {
	cache := newFakeCache()
	cache.failGet = true
	uc := New(Deps{Episodes: testEpisodes(), Cache: cache})

	res, err := uc.FindClips(context.Background(), DefaultQuery())
	if err != nil {
		t.Fatalf("cache failure must not fail the request: %v", err)
	}
	if res.Cached {
		t.Fatalf("unexpected cached flag")
	}
}

func TestFindClips_InvalidQuery(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *Query)
	}{
		{"min above max", func(q *Query) { q.MinDuration, q.MaxDuration = 100, 10 }},
		{"negative duration", func(q *Query) { q.MinDuration = -1 }},
		{"negative limit", func(q *Query) { q.Limit = -1 }},
		{"nan min", func(q *Query) { q.MinDuration = math.NaN() }},
		{"nan max", func(q *Query) { q.MaxDuration = math.NaN() }},
		{"inf max", func(q *Query) { q.MaxDuration = math.Inf(1) }},
		{"-inf min", func(q *Query) { q.MinDuration = math.Inf(-1) }},
	}
	cache := newFakeCache()
	uc := New(Deps{Episodes: testEpisodes(), Cache: cache})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := DefaultQuery()
			tt.mutate(&q)
			if _, err := uc.FindClips(context.Background(), q); !errors.Is(err, ErrInvalidQuery) {
				t.Fatalf("expected ErrInvalidQuery, got %v", err)
			}
		})
	}
	if cache.gets != 0 || cache.sets != 0 {
		t.Fatalf("invalid queries must not touch the cache")
	}
}

type fakeSource struct {
	eps   []types.Episode
	err   error
	calls int
}

func (f *fakeSource) Episodes(context.Context) ([]types.Episode, error) { return f.eps, f.err }

func (f *fakeSource) Episode(_ context.Context, id string) (types.Episode, error) {
	f.calls++
	if f.err != nil {
		return types.Episode{}, f.err
	}
	for _, ep := range f.eps {
		if ep.EpisodeID == id {
			return ep, nil
		}
	}
	return types.Episode{}, fmt.Errorf("episode %s: %w", id, ports.ErrNotFound)
}

func TestFindClips_SingleEpisodeFromSource(t *testing.T) {
	src := &fakeSource{eps: testEpisodes()}
	uc := New(Deps{Episodes: testEpisodes(), Source: src})
	q := DefaultQuery()
	q.EpisodeID = "ep2"
	q.MinScore = 0

	res, err := uc.FindClips(context.Background(), q)
	if err != nil {
		t.Fatalf("find clips: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected one source lookup, got %d", src.calls)
	}
	if res.Metadata.EpisodesProcessed != 1 || len(res.Clips) == 0 || res.Clips[0].EpisodeID != "ep2" {
		t.Fatalf("unexpected result: %+v", res)
	}

	q.EpisodeID = "missing"
	res, err = uc.FindClips(context.Background(), q)
	if err != nil {
		t.Fatalf("unknown episode must not fail: %v", err)
	}
	if len(res.Clips) != 0 || res.Metadata.EpisodesProcessed != 0 {
		t.Fatalf("expected empty result for unknown episode, got %+v", res)
	}
}

func TestFindClips_SourceFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("connection reset")}
	uc := New(Deps{Episodes: testEpisodes(), Source: src})
	q := DefaultQuery()
	q.EpisodeID = "ep1"

	_, err := uc.FindClips(context.Background(), q)
	if err == nil || errors.Is(err, ErrInvalidQuery) || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}

func TestEpisode(t *testing.T) {
	uc := New(Deps{Episodes: testEpisodes()})
	ep, err := uc.Episode(context.Background(), "ep1")
	if err != nil {
		t.Fatalf("episode: %v", err)
	}
	if ep.Title != "Founders" || len(ep.Transcript) != 4 {
		t.Fatalf("unexpected episode: %+v", ep)
	}
	if _, err := uc.Episode(context.Background(), "nope"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindClips_Canceled(t *testing.T) {
	uc := New(Deps{Episodes: testEpisodes()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := uc.FindClips(ctx, DefaultQuery()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func mustKey(t *testing.T, q Query) string {
	t.Helper()
	k, err := q.CacheKey()
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	return k
}

func TestCacheKey_Canonical(t *testing.T) {
	a := DefaultQuery()
	b := DefaultQuery()
	if mustKey(t, a) != mustKey(t, b) {
		t.Fatalf("equal queries must share a key")
	}
	b.Limit = 11
	if mustKey(t, a) == mustKey(t, b) {
		t.Fatalf("limit must affect the key")
	}
}

func TestCacheKey_NonFinite(t *testing.T) {
	q := DefaultQuery()
	q.MaxDuration = math.Inf(1)
	if k, err := q.CacheKey(); err == nil {
		t.Fatalf("expected error for non-finite duration, got key %q", k)
	}
}

func TestEpisodes(t *testing.T) {
	uc := New(Deps{Episodes: testEpisodes()})
	res := uc.Episodes(context.Background())
	if res.Total != 2 || res.Episodes[0].SegmentCount != 4 {
		t.Fatalf("unexpected episodes: %+v", res)
	}
}
