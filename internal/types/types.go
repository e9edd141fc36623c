package types

// Episode is one podcast episode with its ordered transcript.
type Episode struct {
	EpisodeID  string    `json:"episode_id" bson:"episode_id"`
	Title      string    `json:"title" bson:"title"`
	Duration   float64   `json:"duration" bson:"duration"`
	Transcript []Segment `json:"transcript" bson:"transcript"`
}

// Segment is the atomic transcript unit. ID is empty when the source did not
// provide one.
type Segment struct {
	ID        string  `json:"id,omitempty" bson:"id,omitempty"`
	StartTime float64 `json:"start_time" bson:"start_time"`
	EndTime   float64 `json:"end_time" bson:"end_time"`
	Speaker   string  `json:"speaker,omitempty" bson:"speaker,omitempty"`
	Text      string  `json:"text" bson:"text"`
}

// EngagementFactors is the feature snapshot exposed with every candidate.
type EngagementFactors struct {
	HasQuestion    bool     `json:"has_question"`
	HasControversy bool     `json:"has_controversy"`
	HasNumbers     bool     `json:"has_numbers"`
	OptimalLength  bool     `json:"optimal_length"`
	Completeness   bool     `json:"completeness"`
	ActionWords    []string `json:"action_words"`
}

// Candidate is a scored span of one or more consecutive segments.
// First and Last are the indices of the constituent segments in the input
// transcript.
type Candidate struct {
	ClipID            string            `json:"clip_id"`
	EpisodeID         string            `json:"episode_id,omitempty"`
	StartTime         float64           `json:"start_time"`
	EndTime           float64           `json:"end_time"`
	Duration          float64           `json:"duration"`
	Speaker           string            `json:"speaker,omitempty"`
	Score             int               `json:"score"`
	Rank              int               `json:"rank,omitempty"`
	Text              string            `json:"text"`
	EngagementFactors EngagementFactors `json:"engagement_factors"`
	Reasoning         string            `json:"reasoning"`

	First int `json:"-"`
	Last  int `json:"-"`
}

// Segments reports how many transcript segments the candidate spans.
func (c Candidate) Segments() int { return c.Last - c.First + 1 }

type EpisodeSummary struct {
	EpisodeID    string  `json:"episode_id"`
	Title        string  `json:"title"`
	Duration     float64 `json:"duration"`
	SegmentCount int     `json:"segment_count"`
}

type EpisodesResponse struct {
	Episodes []EpisodeSummary `json:"episodes"`
	Total    int              `json:"total"`
}

type ClipsQuery struct {
	EpisodeID   string  `json:"episode_id"`
	MinDuration float64 `json:"min_duration"`
	MaxDuration float64 `json:"max_duration"`
	MinScore    int     `json:"min_score"`
	Limit       int     `json:"limit"`
}

type ClipsMetadata struct {
	TotalClipsAnalyzed int      `json:"total_clips_analyzed"`
	ClipsReturned      int      `json:"clips_returned"`
	EpisodesProcessed  int      `json:"episodes_processed"`
	MinScore           *int     `json:"min_score"`
	MaxScore           *int     `json:"max_score"`
	AvgScore           *float64 `json:"avg_score"`
}

type ClipsResponse struct {
	Clips    []Candidate   `json:"clips"`
	Metadata ClipsMetadata `json:"metadata"`
	Query    ClipsQuery    `json:"query"`
	Cached   bool          `json:"cached,omitempty"`
}
