package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/netdisk-aggregator/internal/domain"
)

type fakeMessageStore struct {
	all     []domain.Message
	batches [][]domain.Message
	batchAt int
	deleted []int64
}

func (f *fakeMessageStore) ListAllDesc(_ context.Context) ([]domain.Message, error) {
	return f.all, nil
}

func (f *fakeMessageStore) ListBatchDesc(_ context.Context, _ int64, _ int) ([]domain.Message, error) {
	if f.batchAt >= len(f.batches) {
		return nil, nil
	}

	b := f.batches[f.batchAt]
	f.batchAt++

	return b, nil
}

func (f *fakeMessageStore) DeleteByIDs(_ context.Context, ids []int64) error {
	f.deleted = append(f.deleted, ids...)
	return nil
}

type fakeStatsStore struct {
	inserted []domain.DedupStats
}

func (f *fakeStatsStore) Insert(_ context.Context, s domain.DedupStats) error {
	f.inserted = append(f.inserted, s)
	return nil
}

func (f *fakeStatsStore) PurgeOlderThan(_ context.Context, _ time.Duration) error {
	return nil
}

func msgWithLinks(id int64, ts time.Time, urls ...string) domain.Message {
	links := map[string][]domain.Link{"夸克网盘": {}}
	for _, u := range urls {
		links["夸克网盘"] = append(links["夸克网盘"], domain.Link{URL: u})
	}

	return domain.Message{ID: id, Timestamp: ts, Links: links}
}

func TestRunStrictKeepsRicherWithinWindow(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Newest first, as ListAllDesc returns.
	msgs := []domain.Message{
		msgWithLinks(2, base.Add(100*time.Second), "https://pan.quark.cn/s/aaa", "https://pan.quark.cn/s/bbb"),
		msgWithLinks(1, base, "https://pan.quark.cn/s/aaa"),
	}

	store := &fakeMessageStore{all: msgs}
	stats := &fakeStatsStore{}
	eng := New(store, stats, zerolog.Nop())

	res, err := eng.RunStrict(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Inserted) // surviving map has 2 distinct URL keys
	require.Equal(t, 1, res.Deleted)
	require.Equal(t, []int64{1}, store.deleted)
}

func TestRunStrictKeepsNewerOutsideWindow(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	msgs := []domain.Message{
		msgWithLinks(2, base.Add(1*time.Hour), "https://pan.quark.cn/s/aaa"),
		msgWithLinks(1, base, "https://pan.quark.cn/s/aaa"),
	}

	store := &fakeMessageStore{all: msgs}
	stats := &fakeStatsStore{}
	eng := New(store, stats, zerolog.Nop())

	res, err := eng.RunStrict(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Deleted)
	require.Equal(t, []int64{1}, store.deleted)
}

func TestRunStreamingAlwaysKeepsNewer(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	batch := []domain.Message{
		msgWithLinks(2, base.Add(1*time.Second), "https://pan.quark.cn/s/aaa"),
		msgWithLinks(1, base, "https://pan.quark.cn/s/aaa"),
	}

	store := &fakeMessageStore{batches: [][]domain.Message{batch}}
	stats := &fakeStatsStore{}
	eng := New(store, stats, zerolog.Nop())

	res, err := eng.RunStreaming(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 1, res.Inserted)
	require.Equal(t, 1, res.Deleted)
	require.Equal(t, []int64{1}, store.deleted)
}
