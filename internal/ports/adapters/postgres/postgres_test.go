package postgres

import (
	"context"
	"database/sql"
	"math"
	"testing"

	"github.com/forPelevin/shortsfinder/internal/types"
)

func TestAssemble(t *testing.T) {
	eps := []types.Episode{{EpisodeID: "ep1"}, {EpisodeID: "ep2"}}
	rows := []segmentRow{
		{EpisodeID: "ep1", ID: sql.NullString{String: "1", Valid: true}, Start: sql.NullFloat64{Float64: 0, Valid: true}, End: sql.NullFloat64{Float64: 30, Valid: true}, Text: sql.NullString{String: "a", Valid: true}},
		{EpisodeID: "ghost", ID: sql.NullString{String: "x", Valid: true}},
		{EpisodeID: "ep1", ID: sql.NullString{String: "2", Valid: true}, Start: sql.NullFloat64{Float64: 30, Valid: true}, End: sql.NullFloat64{}, Speaker: sql.NullString{String: "Ana", Valid: true}},
	}
	got := assemble(eps, rows)
	if len(got) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(got))
	}
	if n := len(got[0].Transcript); n != 2 {
		t.Fatalf("expected 2 segments on ep1, got %d", n)
	}
	if got[0].Transcript[1].EndTime != 0 || got[0].Transcript[1].Speaker != "Ana" {
		t.Fatalf("unexpected second segment: %+v", got[0].Transcript[1])
	}
	if got[1].Transcript == nil || len(got[1].Transcript) != 0 {
		t.Fatalf("expected empty non-nil transcript on ep2")
	}
}

func TestSeconds(t *testing.T) {
	if got := seconds(sql.NullFloat64{Float64: math.Inf(1), Valid: true}); got != 0 {
		t.Fatalf("expected non-finite to be zero, got %v", got)
	}
	if got := seconds(sql.NullFloat64{Float64: 12, Valid: true}); got != 12 {
		t.Fatalf("expected 12, got %v", got)
	}
}

func TestNew_RequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}
