package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/forPelevin/shortsfinder/internal/domain/highlights"
	"github.com/forPelevin/shortsfinder/internal/ports"
	"github.com/forPelevin/shortsfinder/internal/types"
)

// ErrInvalidQuery marks caller mistakes in a clip query.
var ErrInvalidQuery = errors.New("invalid query")

const AllEpisodes = "all"

type Deps struct {
	Episodes []types.Episode
	// Source, when set, serves single-episode lookups. Without it Episodes
	// is searched.
	Source ports.TranscriptSource
	Engine *highlights.Engine
	// Tuning carries the engine search knobs; bounds and score floor come
	// from each query.
	Tuning highlights.Options
	Cache  ports.Cache
	Log    logrus.FieldLogger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Engine == nil {
		d.Engine = highlights.NewEngine(nil)
	}
	if d.Tuning == (highlights.Options{}) {
		d.Tuning = highlights.DefaultOptions()
	}
	if d.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		d.Log = l
	}
	return Usecase{d: d}
}

// Query is a clip search request. Zero values are not defaults; start from
// DefaultQuery.
type Query struct {
	EpisodeID   string
	MinDuration float64
	MaxDuration float64
	MinScore    int
	Limit       int
	Speaker     string
}

func DefaultQuery() Query {
	return Query{
		EpisodeID:   AllEpisodes,
		MinDuration: highlights.DefaultMinDuration,
		MaxDuration: highlights.DefaultMaxDuration,
		MinScore:    70,
		Limit:       10,
	}
}

func (q Query) Validate() error {
	if !finite(q.MinDuration) || !finite(q.MaxDuration) {
		return fmt.Errorf("%w: durations must be finite", ErrInvalidQuery)
	}
	if q.MinDuration < 0 || q.MaxDuration < 0 {
		return fmt.Errorf("%w: durations must be >= 0", ErrInvalidQuery)
	}
	if q.MinDuration > q.MaxDuration {
		return fmt.Errorf("%w: min_duration must be <= max_duration", ErrInvalidQuery)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: limit must be >= 0", ErrInvalidQuery)
	}
	return nil
}

// CacheKey is a canonical encoding of every field that affects the response.
func (q Query) CacheKey() (string, error) {
	b, err := json.Marshal(struct {
		EpisodeID   string  `json:"episode_id"`
		MinDuration float64 `json:"min_duration"`
		MaxDuration float64 `json:"max_duration"`
		MinScore    int     `json:"min_score"`
		Limit       int     `json:"limit"`
		Speaker     string  `json:"speaker"`
	}{q.EpisodeID, q.MinDuration, q.MaxDuration, q.MinScore, q.Limit, q.Speaker})
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	return "clips:" + hash(string(b)), nil
}

func (u Usecase) Episodes(_ context.Context) types.EpisodesResponse {
	out := types.EpisodesResponse{Episodes: make([]types.EpisodeSummary, 0, len(u.d.Episodes))}
	for _, ep := range u.d.Episodes {
		out.Episodes = append(out.Episodes, types.EpisodeSummary{
			EpisodeID:    ep.EpisodeID,
			Title:        ep.Title,
			Duration:     ep.Duration,
			SegmentCount: len(ep.Transcript),
		})
	}
	out.Total = len(out.Episodes)
	return out
}

// Episode returns one episode with its transcript. Unknown ids yield an
// error wrapping ports.ErrNotFound.
func (u Usecase) Episode(ctx context.Context, id string) (types.Episode, error) {
	if u.d.Source != nil {
		return u.d.Source.Episode(ctx, id)
	}
	for _, ep := range u.d.Episodes {
		if ep.EpisodeID == id {
			return ep, nil
		}
	}
	return types.Episode{}, fmt.Errorf("episode %s: %w", id, ports.ErrNotFound)
}

// TotalSegments counts segments across every loaded episode.
func (u Usecase) TotalSegments() int {
	n := 0
	for _, ep := range u.d.Episodes {
		n += len(ep.Transcript)
	}
	return n
}

func (u Usecase) FindClips(ctx context.Context, q Query) (types.ClipsResponse, error) {
	if q.EpisodeID == "" {
		q.EpisodeID = AllEpisodes
	}
	if err := q.Validate(); err != nil {
		return types.ClipsResponse{}, err
	}
	log := u.d.Log.WithField("episode_id", q.EpisodeID)

	key, err := q.CacheKey()
	if err != nil {
		return types.ClipsResponse{}, err
	}
	if resp, ok := u.cached(ctx, key, log); ok {
		log.Debug("clips cache hit")
		return resp, nil
	}

	opts := u.d.Tuning
	opts.MinDuration = q.MinDuration
	opts.MaxDuration = q.MaxDuration
	opts.MinScore = q.MinScore
	opts.CombineSegments = true

	eps, err := u.selectEpisodes(ctx, q.EpisodeID)
	if err != nil {
		return types.ClipsResponse{}, err
	}
	var all []types.Candidate
	for _, ep := range eps {
		if err := ctx.Err(); err != nil {
			return types.ClipsResponse{}, err
		}
		for _, c := range u.d.Engine.IdentifyClips(ep.Transcript, opts) {
			c.EpisodeID = ep.EpisodeID
			c.ClipID = fmt.Sprintf("clip_%s_%s", ep.EpisodeID, c.ClipID)
			all = append(all, c)
		}
	}

	if sp := strings.ToLower(strings.TrimSpace(q.Speaker)); sp != "" {
		filtered := all[:0]
		for _, c := range all {
			if strings.Contains(strings.ToLower(c.Speaker), sp) {
				filtered = append(filtered, c)
			}
		}
		all = filtered
	}

	highlights.SortCandidates(all)
	if len(all) > q.Limit {
		all = all[:q.Limit]
	}
	top := make([]types.Candidate, 0, len(all))
	for i, c := range all {
		c.Rank = i + 1
		c.Duration = round1(c.Duration)
		top = append(top, c)
	}

	resp := types.ClipsResponse{
		Clips:    top,
		Metadata: u.metadata(top, len(eps)),
		Query: types.ClipsQuery{
			EpisodeID:   q.EpisodeID,
			MinDuration: q.MinDuration,
			MaxDuration: q.MaxDuration,
			MinScore:    q.MinScore,
			Limit:       q.Limit,
		},
	}
	u.store(ctx, key, resp, log)
	log.WithFields(logrus.Fields{
		"episodes": len(eps),
		"clips":    len(top),
	}).Debug("clips computed")
	return resp, nil
}

// selectEpisodes resolves "all" to every loaded episode. A single unknown
// id selects nothing.
func (u Usecase) selectEpisodes(ctx context.Context, id string) ([]types.Episode, error) {
	if id == AllEpisodes {
		return u.d.Episodes, nil
	}
	ep, err := u.Episode(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load episode %s: %w", id, err)
	}
	return []types.Episode{ep}, nil
}

func (u Usecase) metadata(top []types.Candidate, processed int) types.ClipsMetadata {
	m := types.ClipsMetadata{
		TotalClipsAnalyzed: u.TotalSegments(),
		ClipsReturned:      len(top),
		EpisodesProcessed:  processed,
	}
	if len(top) == 0 {
		return m
	}
	lo, hi, sum := top[0].Score, top[0].Score, 0
	for _, c := range top {
		lo = min(lo, c.Score)
		hi = max(hi, c.Score)
		sum += c.Score
	}
	avg := round1(float64(sum) / float64(len(top)))
	m.MinScore, m.MaxScore, m.AvgScore = &lo, &hi, &avg
	return m
}

// cached treats cache failures as misses; the cache is an optimisation.
func (u Usecase) cached(ctx context.Context, key string, log logrus.FieldLogger) (types.ClipsResponse, bool) {
	if u.d.Cache == nil {
		return types.ClipsResponse{}, false
	}
	b, ok, err := u.d.Cache.Get(ctx, key)
	if err != nil {
		log.WithError(err).Warn("clips cache get failed")
		return types.ClipsResponse{}, false
	}
	if !ok {
		return types.ClipsResponse{}, false
	}
	var resp types.ClipsResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		log.WithError(err).Warn("clips cache entry unreadable")
		return types.ClipsResponse{}, false
	}
	resp.Cached = true
	return resp, true
}

func (u Usecase) store(ctx context.Context, key string, resp types.ClipsResponse, log logrus.FieldLogger) {
	if u.d.Cache == nil {
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		log.WithError(err).Warn("encode clips for cache")
		return
	}
	if err := u.d.Cache.Set(ctx, key, b); err != nil {
		log.WithError(err).Warn("clips cache set failed")
	}
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func round1(x float64) float64 { return math.Round(x*10) / 10 }

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
