// Package dedup implements the strict and streaming deduplication passes
// described in spec.md §4.5, grounded on
// original_source/app/services/maintenance_service.py::dedup_links.
package dedup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/netdisk-aggregator/internal/domain"
	"github.com/lueurxax/netdisk-aggregator/internal/platform/observability"
)

// purgeAge is how far back DedupStats rows are kept after each run
// (spec.md §3: "rows older than 10 hours may be purged at each run's tail").
const purgeAge = 10 * time.Hour

// MessageStore is the subset of internal/storage.MessageRepo the engine needs.
type MessageStore interface {
	ListAllDesc(ctx context.Context) ([]domain.Message, error)
	ListBatchDesc(ctx context.Context, afterID int64, batchSize int) ([]domain.Message, error)
	DeleteByIDs(ctx context.Context, ids []int64) error
}

// StatsStore persists and purges DedupStats rows.
type StatsStore interface {
	Insert(ctx context.Context, s domain.DedupStats) error
	PurgeOlderThan(ctx context.Context, age time.Duration) error
}

// Engine runs strict or streaming deduplication over the Messages table.
type Engine struct {
	messages MessageStore
	stats    StatsStore
	logger   zerolog.Logger
}

// New constructs an Engine.
func New(messages MessageStore, stats StatsStore, logger zerolog.Logger) *Engine {
	return &Engine{messages: messages, stats: stats, logger: logger.With().Str("component", "dedup").Logger()}
}

// Result summarizes one completed run.
type Result struct {
	Inserted int
	Deleted  int
}

type survivor struct {
	id        int64
	timestamp time.Time
	urlCount  int
}

// RunStrict is "dedup-links": a full-table pass that keeps the richer of two
// time-proximate collisions and the newer message otherwise.
func (e *Engine) RunStrict(ctx context.Context) (Result, error) {
	msgs, err := e.messages.ListAllDesc(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list messages: %w", err)
	}

	urlToSurvivor := make(map[string]survivor)
	toDelete := make(map[int64]struct{})

	for _, m := range msgs {
		urls := allURLs(m)
		if len(urls) == 0 {
			continue
		}

		for _, u := range urls {
			key := normalizeURL(u)
			if key == "" {
				continue
			}

			cur, ok := urlToSurvivor[key]
			if !ok {
				urlToSurvivor[key] = survivor{id: m.ID, timestamp: m.Timestamp, urlCount: len(urls)}
				continue
			}

			diff := cur.timestamp.Sub(m.Timestamp)
			if diff < 0 {
				diff = -diff
			}

			if diff < 300*time.Second {
				if len(urls) > cur.urlCount {
					toDelete[cur.id] = struct{}{}
					urlToSurvivor[key] = survivor{id: m.ID, timestamp: m.Timestamp, urlCount: len(urls)}
				} else {
					toDelete[m.ID] = struct{}{}
				}
			} else {
				// msgs is ordered newest-first, so cur is already the newer row.
				toDelete[m.ID] = struct{}{}
			}
		}
	}

	res, err := e.finish(ctx, urlToSurvivor, toDelete)
	if err == nil {
		observability.DedupRunsTotal.WithLabelValues("strict").Inc()
		observability.DedupDeletedTotal.Add(float64(res.Deleted))
	}

	return res, err
}

// RunStreaming is "dedup-links-fast": bounded-memory, page at a time, newest
// always wins a collision regardless of time proximity.
func (e *Engine) RunStreaming(ctx context.Context, batchSize int) (Result, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	urlToSurvivor := make(map[string]survivor)
	toDelete := make(map[int64]struct{})

	var afterID int64

	for {
		batch, err := e.messages.ListBatchDesc(ctx, afterID, batchSize)
		if err != nil {
			return Result{}, fmt.Errorf("list batch: %w", err)
		}

		if len(batch) == 0 {
			break
		}

		for _, m := range batch {
			urls := allURLs(m)
			if len(urls) == 0 {
				continue
			}

			for _, u := range urls {
				key := normalizeURL(u)
				if key == "" {
					continue
				}

				if _, ok := urlToSurvivor[key]; ok {
					toDelete[m.ID] = struct{}{}
					continue
				}

				urlToSurvivor[key] = survivor{id: m.ID, timestamp: m.Timestamp, urlCount: len(urls)}
			}

			afterID = m.ID
		}

		if len(batch) < batchSize {
			break
		}
	}

	res, err := e.finish(ctx, urlToSurvivor, toDelete)
	if err == nil {
		observability.DedupRunsTotal.WithLabelValues("streaming").Inc()
		observability.DedupDeletedTotal.Add(float64(res.Deleted))
	}

	return res, err
}

func (e *Engine) finish(ctx context.Context, survivors map[string]survivor, toDelete map[int64]struct{}) (Result, error) {
	ids := make([]int64, 0, len(toDelete))
	for id := range toDelete {
		ids = append(ids, id)
	}

	if len(ids) > 0 {
		if err := e.messages.DeleteByIDs(ctx, ids); err != nil {
			return Result{}, fmt.Errorf("delete messages: %w", err)
		}
	}

	res := Result{Inserted: len(survivors), Deleted: len(ids)}

	if err := e.stats.Insert(ctx, domain.DedupStats{RunTime: time.Now(), Inserted: res.Inserted, Deleted: res.Deleted}); err != nil {
		return res, fmt.Errorf("insert dedup stats: %w", err)
	}

	if err := e.stats.PurgeOlderThan(ctx, purgeAge); err != nil {
		return res, fmt.Errorf("purge dedup stats: %w", err)
	}

	e.logger.Info().Int("inserted", res.Inserted).Int("deleted", res.Deleted).Msg("dedup run complete")

	return res, nil
}

func normalizeURL(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

func allURLs(m domain.Message) []string {
	var urls []string

	for _, links := range m.Links {
		for _, l := range links {
			urls = append(urls, l.URL)
		}
	}

	return urls
}
