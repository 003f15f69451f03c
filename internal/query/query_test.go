package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lueurxax/netdisk-aggregator/internal/domain"
	"github.com/lueurxax/netdisk-aggregator/internal/storage"
)

type fakeMessageStore struct {
	rows      []domain.Message
	total     int64
	tagRows   []storage.TagCount
	lastLimit []int
}

func (f *fakeMessageStore) List(_ context.Context, fl storage.ListFilter) ([]domain.Message, error) {
	start := fl.Offset
	if start > len(f.rows) {
		start = len(f.rows)
	}

	end := start + fl.Limit + 1
	if end > len(f.rows) {
		end = len(f.rows)
	}

	return f.rows[start:end], nil
}

func (f *fakeMessageStore) Count(_ context.Context, _ storage.ListFilter) (int64, error) {
	return f.total, nil
}

func (f *fakeMessageStore) TagStats(_ context.Context, limit int) ([]storage.TagCount, error) {
	f.lastLimit = append(f.lastLimit, limit)
	return f.tagRows, nil
}

func TestResolveTimeRangeKeywords(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	since, err := ResolveTimeRange("最近1小时", now)
	require.NoError(t, err)
	require.NotNil(t, since)
	require.Equal(t, now.Add(-time.Hour), *since)

	since, err = ResolveTimeRange("", now)
	require.NoError(t, err)
	require.Nil(t, since)

	since, err = ResolveTimeRange("全部", now)
	require.NoError(t, err)
	require.Nil(t, since)

	_, err = ResolveTimeRange("不存在", now)
	require.Error(t, err)
}

func TestCoerceGuestDropsFiltersAndForcesTimeRange(t *testing.T) {
	req := PageRequest{
		QueryText:   "foo",
		TimeRange:   "全部",
		Tags:        []string{"a"},
		Providers:   []string{"夸克网盘"},
		MinTotalLen: 5,
		LinksOnly:   true,
		Page:        3,
		PageSize:    500,
	}

	got := CoerceGuest(req)

	require.Equal(t, "", got.QueryText)
	require.Nil(t, got.Tags)
	require.Nil(t, got.Providers)
	require.Equal(t, 0, got.MinTotalLen)
	require.False(t, got.LinksOnly)
	require.Equal(t, "最近24小时", got.TimeRange)
	require.Equal(t, guestPageSize, got.PageSize)
	require.Equal(t, 3, got.Page, "guest coercion does not touch pagination")
}

func TestCoerceGuestKeepsSmallPageSize(t *testing.T) {
	got := CoerceGuest(PageRequest{PageSize: 10})
	require.Equal(t, 10, got.PageSize)
}

func TestTagStatsClampsLimit(t *testing.T) {
	store := &fakeMessageStore{}
	svc := NewService(store, nil, nil)

	_, err := svc.TagStats(context.Background(), 0)
	require.NoError(t, err)

	_, err = svc.TagStats(context.Background(), 500)
	require.NoError(t, err)

	_, err = svc.TagStats(context.Background(), 50)
	require.NoError(t, err)

	require.Equal(t, []int{20, 100, 50}, store.lastLimit, "limit <=0 defaults to 20, >100 clamps to 100")
}

func TestClampBoundaries(t *testing.T) {
	require.Equal(t, 10, clamp(0, 1, 30, 10), "zero or negative uses the default")
	require.Equal(t, 1, clamp(-5, 1, 30, 10))
	require.Equal(t, 30, clamp(1000, 1, 30, 10))
	require.Equal(t, 15, clamp(15, 1, 30, 10))
}

func TestListMessagesPaginationDetectsMorePages(t *testing.T) {
	rows := make([]domain.Message, 250)
	for i := range rows {
		rows[i] = domain.Message{ID: int64(i + 1)}
	}

	store := &fakeMessageStore{rows: rows, total: int64(len(rows))}
	svc := NewService(store, nil, nil)

	res, err := svc.ListMessages(context.Background(), PageRequest{Page: 1, PageSize: 100})
	require.NoError(t, err)
	require.Len(t, res.Messages, 100)
	require.Equal(t, int64(250), res.Total)
	require.Equal(t, int64(3), res.MaxPage)
}

func TestListMessagesPageSizeClampedTo200(t *testing.T) {
	store := &fakeMessageStore{rows: make([]domain.Message, 10), total: 10}
	svc := NewService(store, nil, nil)

	res, err := svc.ListMessages(context.Background(), PageRequest{Page: 1, PageSize: 5000})
	require.NoError(t, err)
	require.Equal(t, maxPageSize, res.PageSize)
}

func TestListMessagesResetsPastMaxPage(t *testing.T) {
	rows := make([]domain.Message, 10)
	for i := range rows {
		rows[i] = domain.Message{ID: int64(i + 1)}
	}

	store := &fakeMessageStore{rows: rows, total: int64(len(rows))}
	svc := NewService(store, nil, nil)

	res, err := svc.ListMessages(context.Background(), PageRequest{Page: 99, PageSize: 5})
	require.NoError(t, err)
	require.Equal(t, 1, res.Page, "requesting a page beyond max_page resets to page 1")
}
