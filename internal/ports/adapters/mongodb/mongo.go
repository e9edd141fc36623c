package mongodb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/forPelevin/shortsfinder/internal/ports"
	"github.com/forPelevin/shortsfinder/internal/types"
)

// Config selects the collection holding one document per episode.
type Config struct {
	URI        string
	Database   string
	Collection string
}

type Adapter struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects and verifies the deployment is reachable.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo URI is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	return &Adapter{client: client, coll: coll}, nil
}

func (a *Adapter) Close(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}

type episodeDoc struct {
	EpisodeID  string       `bson:"episode_id"`
	Title      string       `bson:"title"`
	Duration   float64      `bson:"duration"`
	Transcript []segmentDoc `bson:"transcript"`
}

// segmentDoc keeps loosely typed fields raw; exports store ids and times as
// ints, doubles or strings.
type segmentDoc struct {
	ID        bson.RawValue `bson:"id"`
	StartTime bson.RawValue `bson:"start_time"`
	EndTime   bson.RawValue `bson:"end_time"`
	Speaker   string        `bson:"speaker"`
	Text      string        `bson:"text"`
}

func (a *Adapter) Episodes(ctx context.Context) ([]types.Episode, error) {
	cur, err := a.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "episode_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find episodes: %w", err)
	}
	var docs []episodeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode episodes: %w", err)
	}
	out := make([]types.Episode, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.episode())
	}
	return out, nil
}

func (a *Adapter) Episode(ctx context.Context, id string) (types.Episode, error) {
	var d episodeDoc
	err := a.coll.FindOne(ctx, bson.M{"episode_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Episode{}, fmt.Errorf("episode %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return types.Episode{}, fmt.Errorf("find episode %s: %w", id, err)
	}
	return d.episode(), nil
}

func (d episodeDoc) episode() types.Episode {
	ep := types.Episode{
		EpisodeID:  d.EpisodeID,
		Title:      d.Title,
		Duration:   d.Duration,
		Transcript: make([]types.Segment, 0, len(d.Transcript)),
	}
	for _, s := range d.Transcript {
		ep.Transcript = append(ep.Transcript, types.Segment{
			ID:        rawString(s.ID),
			StartTime: rawSeconds(s.StartTime),
			EndTime:   rawSeconds(s.EndTime),
			Speaker:   s.Speaker,
			Text:      s.Text,
		})
	}
	return ep
}

func rawString(v bson.RawValue) string {
	switch v.Type {
	case bsontype.String:
		return v.StringValue()
	case bsontype.Int32:
		return strconv.Itoa(int(v.Int32()))
	case bsontype.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case bsontype.Double:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	}
	return ""
}

func rawSeconds(v bson.RawValue) float64 {
	var f float64
	switch v.Type {
	case bsontype.Double:
		f = v.Double()
	case bsontype.Int32:
		f = float64(v.Int32())
	case bsontype.Int64:
		f = float64(v.Int64())
	case bsontype.String:
		p, err := strconv.ParseFloat(strings.TrimSpace(v.StringValue()), 64)
		if err != nil {
			return 0
		}
		f = p
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
