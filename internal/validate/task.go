package validate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/netdisk-aggregator/internal/domain"
	"github.com/lueurxax/netdisk-aggregator/internal/links/classify"
	"github.com/lueurxax/netdisk-aggregator/internal/platform/observability"
	"github.com/lueurxax/netdisk-aggregator/internal/query"
)

// TaskState is the in-memory progress record for one running or finished
// validation task. Status.ID is looked up before falling back to the
// persisted stats history once finalized.
type TaskState struct {
	Status       domain.LinkCheckStatus
	Progress     int
	PeriodDesc   string
	TotalLinks   int
	CheckedLinks int
	ValidLinks   int
	InvalidLinks int
	Error        string
}

// MessageSource is the subset of internal/storage.MessageRepo a task needs
// to resolve its working set.
type MessageSource interface {
	ListWithLinksInRange(ctx context.Context, start, end time.Time) ([]domain.Message, error)
}

// StatsRepo is the subset of internal/storage.LinkCheckRepo a task writes to.
type StatsRepo interface {
	InsertStats(ctx context.Context, s domain.LinkCheckStats) error
	InsertDetails(ctx context.Context, details []domain.LinkCheckDetails) error
}

// Runner owns the task table and drives validation runs. Global mutable
// state (the task table, the circuit breakers inside Validator) lives here
// as a process-scoped singleton with explicit construction, not package
// globals.
type Runner struct {
	validator *Validator
	messages  MessageSource
	repo      StatsRepo
	logger    zerolog.Logger

	mu      sync.Mutex
	tasks   map[string]*TaskState
	cancels map[string]context.CancelFunc
}

// NewRunner constructs a Runner.
func NewRunner(validator *Validator, messages MessageSource, repo StatsRepo, logger zerolog.Logger) *Runner {
	return &Runner{
		validator: validator,
		messages:  messages,
		repo:      repo,
		logger:    logger,
		tasks:     make(map[string]*TaskState),
		cancels:   make(map[string]context.CancelFunc),
	}
}

// Start allocates a task id, resolves the period specifier, and launches the
// run in the background. It returns as soon as the task is registered, not
// once it finishes.
func (r *Runner) Start(periodStr string, maxConcurrent int, fullHistory bool) (string, error) {
	period, err := query.ParsePeriod(periodStr, time.Now())
	if err != nil {
		return "", err
	}

	taskID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	r.mu.Lock()
	r.tasks[taskID] = &TaskState{Status: domain.LinkCheckRunning, PeriodDesc: period.Desc}
	r.cancels[taskID] = cancel
	r.mu.Unlock()

	go r.run(ctx, taskID, period, maxConcurrent, fullHistory)

	return taskID, nil
}

// Cancel requests cooperative cancellation of a running task. It is a no-op
// if the task is already finished or unknown.
func (r *Runner) Cancel(taskID string) {
	r.mu.Lock()
	cancel, ok := r.cancels[taskID]
	r.mu.Unlock()

	if ok {
		cancel()
	}
}

// Status returns the in-memory state of a task, or false if unknown — once a
// task finalizes it remains queryable here until the process restarts; the
// history endpoint then serves the persisted stats rows ordered by
// check_time desc.
func (r *Runner) Status(taskID string) (TaskState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.tasks[taskID]
	if !ok {
		return TaskState{}, false
	}

	return *s, true
}

func (r *Runner) run(ctx context.Context, taskID string, period query.Period, maxConcurrent int, fullHistory bool) {
	defer func() {
		r.mu.Lock()
		delete(r.cancels, taskID)
		r.mu.Unlock()
	}()

	messages, err := r.messages.ListWithLinksInRange(ctx, period.Start, period.End)
	if err != nil {
		r.fail(taskID, fmt.Sprintf("load messages: %v", err))
		return
	}

	if len(messages) == 0 {
		r.finish(taskID, nil, 0, 0, domain.LinkCheckCompleted)
		return
	}

	var urls []string
	for _, m := range messages {
		urls = append(urls, allURLs(m)...)
	}

	if len(urls) == 0 {
		r.finish(taskID, nil, 0, len(messages), domain.LinkCheckCompleted)
		return
	}

	if !CheckSafetyLimits(len(urls), maxConcurrent) {
		r.fail(taskID, fmt.Sprintf("link count (%d) or concurrency (%d) exceeds safety limits", len(urls), maxConcurrent))
		return
	}

	r.setTotal(taskID, len(urls))

	start := time.Now()
	completed := r.probe(ctx, taskID, urls, maxConcurrent, fullHistory)
	completed = r.validator.RetryFailed(ctx, completed)
	duration := time.Since(start).Seconds()

	status := domain.LinkCheckCompleted
	if ctx.Err() != nil {
		status = domain.LinkCheckInterrupted
	}

	r.finishWithResults(taskID, messages, urls, completed, duration, status)
}

// probe runs the per-provider concurrency-capped probe loop, launching no
// new probes once ctx is canceled and returning only the subset that
// actually ran — in-flight probes are awaited, not abandoned.
func (r *Runner) probe(ctx context.Context, taskID string, urls []string, maxConcurrent int, fullHistory bool) []ProbeResult {
	groups := make(map[string][]string)
	order := make([]string, 0)

	for _, u := range urls {
		provider := classify.Classify(u)
		if _, ok := groups[provider]; !ok {
			order = append(order, provider)
		}

		groups[provider] = append(groups[provider], u)
	}

	var (
		mu        sync.Mutex
		completed []ProbeResult
	)

	for _, provider := range order {
		if ctx.Err() != nil {
			break
		}

		group := groups[provider]
		concurrency := effectiveConcurrency(provider, maxConcurrent, fullHistory)

		if concurrency <= 0 {
			concurrency = 1
		}

		sem := make(chan struct{}, concurrency)

		var wg sync.WaitGroup

	launch:
		for _, u := range group {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				break launch
			}

			wg.Add(1)

			go func(target string) {
				defer wg.Done()
				defer func() { <-sem }()

				res := r.validator.CheckSingleLink(ctx, target)

				mu.Lock()
				completed = append(completed, res)
				checked := len(completed)
				mu.Unlock()

				r.progress(taskID, checked, res)
			}(u)
		}

		wg.Wait()
	}

	return completed
}

func (r *Runner) setTotal(taskID string, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.tasks[taskID]; ok {
		s.TotalLinks = total
	}
}

func (r *Runner) progress(taskID string, checked int, res ProbeResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.tasks[taskID]
	if !ok {
		return
	}

	s.CheckedLinks = checked
	if s.TotalLinks > 0 {
		s.Progress = checked * 100 / s.TotalLinks
	}

	if res.IsValid {
		s.ValidLinks++
		observability.LinksValidated.WithLabelValues(res.NetdiskType, "valid").Inc()
	} else {
		s.InvalidLinks++
		observability.LinksValidated.WithLabelValues(res.NetdiskType, "invalid").Inc()
	}
}

// fail records an early-exit failure (message load error, safety cap
// rejection) as in-memory task state only — the original never persists a
// stats row for these paths, only for a run that actually reached probing.
func (r *Runner) fail(taskID, reason string) {
	r.mu.Lock()
	if s, ok := r.tasks[taskID]; ok {
		s.Status = domain.LinkCheckFailed
		s.Error = reason
	}
	r.mu.Unlock()

	r.logger.Warn().Str("task_id", taskID).Str("reason", reason).Msg("validation task failed")
}

// finish handles the zero-links early-exit paths, where there is nothing to
// probe and no details to write.
func (r *Runner) finish(taskID string, results []ProbeResult, totalLinks, totalMessages int, status domain.LinkCheckStatus) {
	summary := Summarize(results)

	r.mu.Lock()
	if s, ok := r.tasks[taskID]; ok {
		s.Status = status
		s.Progress = 100
		s.TotalLinks = totalLinks
	}
	r.mu.Unlock()

	stats := domain.LinkCheckStats{
		CheckTime:     time.Now(),
		TotalMessages: totalMessages,
		TotalLinks:    totalLinks,
		ValidLinks:    summary.ValidLinks,
		InvalidLinks:  summary.InvalidLinks,
		NetdiskStats:  toDomainNetdiskStats(summary.NetdiskStats),
		Status:        status,
	}

	if err := r.repo.InsertStats(context.Background(), stats); err != nil {
		r.logger.Error().Err(err).Str("task_id", taskID).Msg("persist task stats")
	}
}

func (r *Runner) finishWithResults(taskID string, messages []domain.Message, urls []string, results []ProbeResult, duration float64, status domain.LinkCheckStatus) {
	summary := Summarize(results)
	checkTime := time.Now()

	observability.LinkCheckDuration.Observe(duration)

	r.mu.Lock()
	if s, ok := r.tasks[taskID]; ok {
		s.Status = status
		s.Progress = 100
		s.CheckedLinks = len(results)
		s.ValidLinks = summary.ValidLinks
		s.InvalidLinks = summary.InvalidLinks
	}
	r.mu.Unlock()

	stats := domain.LinkCheckStats{
		CheckTime:     checkTime,
		TotalMessages: len(messages),
		TotalLinks:    len(urls),
		ValidLinks:    summary.ValidLinks,
		InvalidLinks:  summary.InvalidLinks,
		NetdiskStats:  toDomainNetdiskStats(summary.NetdiskStats),
		CheckDuration: duration,
		Status:        status,
	}

	bgCtx := context.Background()

	if err := r.repo.InsertStats(bgCtx, stats); err != nil {
		r.logger.Error().Err(err).Str("task_id", taskID).Msg("persist task stats")
		return
	}

	details := make([]domain.LinkCheckDetails, len(results))
	for i, res := range results {
		details[i] = domain.LinkCheckDetails{
			CheckTime:    checkTime,
			NetdiskType:  res.NetdiskType,
			URL:          res.URL,
			IsValid:      res.IsValid,
			ResponseTime: res.ResponseTime,
			ErrorReason:  res.ErrorReason,
			ActionTaken:  "none",
		}
	}

	if err := r.repo.InsertDetails(bgCtx, details); err != nil {
		r.logger.Error().Err(err).Str("task_id", taskID).Msg("persist task details")
	}

	r.logger.Info().
		Str("task_id", taskID).
		Str("status", string(status)).
		Int("total_links", len(urls)).
		Int("valid", summary.ValidLinks).
		Int("invalid", summary.InvalidLinks).
		Msg("validation task finished")
}

func toDomainNetdiskStats(in map[string]NetdiskStat) map[string]domain.NetdiskStat {
	out := make(map[string]domain.NetdiskStat, len(in))
	for k, v := range in {
		out[k] = domain.NetdiskStat{Total: v.Total, Valid: v.Valid, Invalid: v.Invalid}
	}

	return out
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
