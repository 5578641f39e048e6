package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Score resolves the demand score for a context. Absent data
	// yields the global default; the call never fails.
	Score(ctx context.Context, query ScoreQuery) ScoreResult

	// AggregateDaily recomputes metric rows for one day across every
	// known destination/service-type pair. Item failures are collected
	// into the summary and do not abort the run.
	AggregateDaily(ctx context.Context, day time.Time) (Summary, error)

	History(ctx context.Context, query HistoryQuery) ([]DemandMetric, error)
}

type ScoreQuery struct {
	DestinationID *snowflake.ID
	ServiceType   *string
	Date          time.Time
}

type ScoreResult struct {
	Score float64 `json:"demand_score"`
	Tier  Tier    `json:"tier"`
}

type HistoryQuery struct {
	DestinationID *snowflake.ID
	ServiceType   *string
	From          time.Time
	To            time.Time
}

// Summary reports one aggregation run: how many metric rows were
// written and which items failed.
type Summary struct {
	Day            time.Time   `json:"day"`
	MetricsUpdated int         `json:"metrics_updated"`
	Errors         []ItemError `json:"errors,omitempty"`
}

type ItemError struct {
	DestinationID *snowflake.ID `json:"destination_id,omitempty"`
	ServiceType   *string       `json:"service_type,omitempty"`
	Message       string        `json:"message"`
}

var (
	ErrInvalidDay       = errors.New("invalid_day")
	ErrInvalidDateRange = errors.New("invalid_date_range")
)
