package validate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/netdisk-aggregator/internal/domain"
)

type fakeMessageSource struct {
	messages []domain.Message
}

func (f *fakeMessageSource) ListWithLinksInRange(_ context.Context, _, _ time.Time) ([]domain.Message, error) {
	return f.messages, nil
}

type fakeStatsRepo struct {
	mu      sync.Mutex
	stats   []domain.LinkCheckStats
	details [][]domain.LinkCheckDetails
}

func (f *fakeStatsRepo) InsertStats(_ context.Context, s domain.LinkCheckStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stats = append(f.stats, s)

	return nil
}

func (f *fakeStatsRepo) InsertDetails(_ context.Context, details []domain.LinkCheckDetails) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.details = append(f.details, details)

	return nil
}

func messageWithLinkCount(n int) domain.Message {
	links := make([]domain.Link, n)
	for i := range links {
		links[i] = domain.Link{URL: fmt.Sprintf("https://pan.quark.cn/s/%d", i)}
	}

	return domain.Message{ID: 1, Timestamp: time.Now(), Links: map[string][]domain.Link{"夸克网盘": links}}
}

// TestRunnerSafetyCap is spec scenario 5: a task resolving to more than 1000
// URLs fails immediately, with no probes issued and no stats row written.
func TestRunnerSafetyCap(t *testing.T) {
	messages := &fakeMessageSource{messages: []domain.Message{messageWithLinkCount(1500)}}
	stats := &fakeStatsRepo{}

	r := NewRunner(NewValidator(nil), messages, stats, zerolog.Nop())

	taskID, err := r.Start("today", 1, false)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		st, ok := r.Status(taskID)
		return ok && st.Status == domain.LinkCheckFailed
	}, 2*time.Second, 10*time.Millisecond)

	st, ok := r.Status(taskID)
	require.True(t, ok)
	require.Equal(t, domain.LinkCheckFailed, st.Status)
	require.Contains(t, st.Error, "safety limits")

	stats.mu.Lock()
	defer stats.mu.Unlock()
	require.Empty(t, stats.stats, "safety-cap rejection must not persist a stats row")
}

// hostRewriteTransport forces every outbound request to target addr while
// leaving the request's URL (and therefore classify.Classify's view of it)
// untouched, so tests can make a real provider hostname resolve to a local
// httptest.Server.
type hostRewriteTransport struct {
	addr string
}

func (t *hostRewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rr := req.Clone(req.Context())
	rr.URL.Host = t.addr
	rr.Host = t.addr

	return http.DefaultTransport.RoundTrip(rr)
}

// TestRunnerInterruption is spec scenario 6: canceling a 100-URL task after
// some probes have completed stops new probes from launching, awaits the
// in-flight ones, and persists an interrupted stats row covering only the
// completed subset.
func TestRunnerInterruption(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	client := &http.Client{
		Transport: &hostRewriteTransport{addr: ts.Listener.Addr().String()},
		Timeout:   5 * time.Second,
	}

	const totalLinks = 100
	messages := &fakeMessageSource{messages: []domain.Message{messageWithLinkCount(totalLinks)}}
	stats := &fakeStatsRepo{}

	r := NewRunner(NewValidator(client), messages, stats, zerolog.Nop())

	taskID, err := r.Start("today", 5, false)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		st, ok := r.Status(taskID)
		return ok && st.CheckedLinks >= 20
	}, 30*time.Second, 25*time.Millisecond, "expected at least 20 probes to complete")

	r.Cancel(taskID)

	require.Eventually(t, func() bool {
		st, ok := r.Status(taskID)
		return ok && st.Status == domain.LinkCheckInterrupted
	}, 30*time.Second, 25*time.Millisecond, "task must finalize as interrupted after cancel")

	finalStatus, _ := r.Status(taskID)
	require.Less(t, finalStatus.CheckedLinks, totalLinks, "cancellation must stop new probes before the full set runs")

	stats.mu.Lock()
	defer stats.mu.Unlock()

	require.Len(t, stats.stats, 1)
	require.Equal(t, domain.LinkCheckInterrupted, stats.stats[0].Status)
	require.Equal(t, totalLinks, stats.stats[0].TotalLinks)
	require.Less(t, stats.stats[0].ValidLinks+stats.stats[0].InvalidLinks, totalLinks)

	require.Len(t, stats.details, 1)
	require.Equal(t, finalStatus.CheckedLinks, len(stats.details[0]), "persisted details must equal the completed subset only")
}
