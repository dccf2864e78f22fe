package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gallerydash/activity-bot/internal/config"
	"github.com/gallerydash/activity-bot/internal/export"
	"github.com/gallerydash/activity-bot/internal/models"
	"github.com/gallerydash/activity-bot/internal/notifications"
	"github.com/gallerydash/activity-bot/internal/source"
	"github.com/gallerydash/activity-bot/internal/storage"
	"github.com/sirupsen/logrus"
)

// ErrIntegrityGate marks a window whose fetch-failure count exceeded the
// threshold. The window's aggregate is discarded and the whole run aborts:
// that many failures usually means the source is blocking us, and pushing on
// would silently produce more bad windows.
var ErrIntegrityGate = errors.New("integrity gate tripped")

// Service drives hourly ingestion windows to completion in chronological
// order: resume from the artifact store, locate, fetch, gate, export.
type Service struct {
	config  *config.Config
	src     source.Source
	store   storage.ArtifactStore
	notify  notifications.NotificationInterface
	locator *Locator
	fetcher *Fetcher

	metrics *Metrics
	mu      sync.RWMutex
}

// Metrics holds ingestion run metrics
type Metrics struct {
	LastRun          time.Time              `json:"last_run"`
	LastRunDuration  string                 `json:"last_run_duration"`
	WindowsCompleted int                    `json:"windows_completed"`
	WindowsAborted   int                    `json:"windows_aborted"`
	LastWindows      []models.WindowSummary `json:"last_windows"`
}

// NewService creates an ingestion service wired to the given collaborators.
func NewService(cfg *config.Config, src source.Source, store storage.ArtifactStore, notify notifications.NotificationInterface) *Service {
	listRetry := source.RetryPolicy{MaxAttempts: cfg.MaxAttempts, Timeout: cfg.ListTimeout}
	fetchRetry := source.RetryPolicy{MaxAttempts: cfg.MaxAttempts, Timeout: cfg.FetchTimeout}

	return &Service{
		config:  cfg,
		src:     src,
		store:   store,
		notify:  notify,
		locator: NewLocator(src, listRetry, cfg.PinnedCutoff, cfg.OldPostStreak, cfg.MaxListPages),
		fetcher: NewFetcher(src, fetchRetry, cfg.FetchWorkers, cfg.PacingDelay, cfg.PacingJitter),
		metrics: &Metrics{},
	}
}

// RunPending ingests every hourly window between the resume point and the
// current hour, oldest first, failing fast on the first gate trip.
func (s *Service) RunPending(ctx context.Context) error {
	start := time.Now()
	now := start.In(models.Location())
	currentHour := now.Truncate(time.Hour)

	last, err := s.resumePoint(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to determine resume point: %w", err)
	}

	logrus.Infof("Resuming after window %s (current hour %s)", last.Label(), currentHour.Format("15:04"))

	var summaries []models.WindowSummary
	for window := last.Next(); window.Start.Before(currentHour); window = window.Next() {
		summary, err := s.RunWindow(ctx, window)
		if err != nil {
			if errors.Is(err, ErrIntegrityGate) {
				s.recordAbort()
				s.sendAbortAlert(window, summary.Failures)
			}
			return err
		}
		summaries = append(summaries, summary)

		// Hygiene pause between windows; lets the source breathe and the
		// previous window's memory get reclaimed.
		if window.Next().Start.Before(currentHour) {
			time.Sleep(s.config.WindowPause)
		}
	}

	s.recordRun(summaries, time.Since(start))

	if len(summaries) > 0 {
		s.sendRunReport(summaries)
	}

	logrus.Infof("Ingestion run completed: %d window(s) in %v", len(summaries), time.Since(start))
	return nil
}

// RunWindow ingests a single window end to end. The returned summary is
// valid even on gate failure (for alerting); the aggregate itself is
// discarded in that case.
func (s *Service) RunWindow(ctx context.Context, window models.TimeWindow) (models.WindowSummary, error) {
	logrus.Infof("Ingesting window %s", window.Label())
	summary := models.WindowSummary{WindowLabel: window.Label()}

	agg := NewAggregator(window)

	rng, err := s.locator.Locate(ctx, window)
	if err != nil {
		return summary, fmt.Errorf("listing scan for window %s failed: %w", window.Label(), err)
	}
	summary.MinID, summary.MaxID = rng.MinID, rng.MaxID
	summary.PostsFound = rng.Count()

	if rng.IsEmpty() {
		logrus.Infof("Window %s: no in-window posts found", window.Label())
	} else {
		logrus.Infof("Window %s: scraping id range [%d, %d]", window.Label(), rng.MinID, rng.MaxID)
		failures := s.fetcher.Fetch(ctx, window, rng, agg)
		summary.Failures = failures

		if failures > s.config.FailureThreshold {
			logrus.Errorf("Window %s: %d fetch failures exceed threshold %d, discarding window",
				window.Label(), failures, s.config.FailureThreshold)
			return summary, fmt.Errorf("window %s: %d failures: %w", window.Label(), failures, ErrIntegrityGate)
		}
	}

	rows := agg.Rows()
	summary.Identities = len(rows)

	if err := s.persist(ctx, window, rows); err != nil {
		// Upload failure does not invalidate a correctly computed window;
		// the local artifact is kept for manual recovery.
		logrus.Errorf("Window %s: %v", window.Label(), err)
	}

	logrus.Infof("Window %s done: %d identities, %d failures", window.Label(), len(rows), summary.Failures)
	return summary, nil
}

// persist exports the rows and uploads the artifact. An empty window still
// produces an artifact: the artifact name is what advances the resume point.
func (s *Service) persist(ctx context.Context, window models.TimeWindow, rows []models.ActivityRow) error {
	name := export.ArtifactName(window)

	data, err := export.MarshalCSV(rows)
	if err != nil {
		return fmt.Errorf("failed to serialize artifact %s: %w", name, err)
	}

	if err := s.store.Store(ctx, name, data); err != nil {
		if localErr := export.WriteLocal(name, data); localErr != nil {
			logrus.Errorf("Could not keep local copy of %s: %v", name, localErr)
		} else {
			logrus.Warnf("Upload failed, kept local artifact %s", name)
		}
		return fmt.Errorf("failed to upload artifact %s: %w", name, err)
	}

	return nil
}

// resumePoint derives the last completed window from stored artifact names.
// With no parseable artifact, or one staler than the configured bound, it
// falls back to the previous hour so a long outage doesn't turn into an
// unbounded backlog.
func (s *Service) resumePoint(ctx context.Context, now time.Time) (models.TimeWindow, error) {
	baseline := models.NewTimeWindow(now.Truncate(time.Hour).Add(-time.Hour))

	names, err := s.store.List(ctx, "")
	if err != nil {
		return models.TimeWindow{}, err
	}

	var last models.TimeWindow
	found := false
	for _, name := range names {
		label := strings.TrimSuffix(name, ".csv")
		window, err := models.ParseWindowLabel(label)
		if err != nil {
			continue
		}
		if !found || window.Start.After(last.Start) {
			last = window
			found = true
		}
	}

	if !found {
		logrus.Info("No previous artifacts found, starting from the previous hour")
		return baseline, nil
	}
	if now.Sub(last.Start) > s.config.ResumeStaleness {
		logrus.Warnf("Last completed window %s is stale, falling back to the previous hour", last.Label())
		return baseline, nil
	}

	return last, nil
}

func (s *Service) recordRun(summaries []models.WindowSummary, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.LastRun = time.Now()
	s.metrics.LastRunDuration = duration.String()
	s.metrics.WindowsCompleted += len(summaries)
	s.metrics.LastWindows = summaries
}

func (s *Service) recordAbort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.WindowsAborted++
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}

func (s *Service) sendRunReport(summaries []models.WindowSummary) {
	report := &models.RunReport{
		GeneratedAt: time.Now(),
		Gallery:     s.src.GalleryID(),
		Windows:     summaries,
	}
	if err := s.notify.SendRunReport(report); err != nil {
		logrus.Errorf("Failed to send run report: %v", err)
	}
}

func (s *Service) sendAbortAlert(window models.TimeWindow, failures int) {
	alert := &models.AbortAlert{
		WindowLabel: window.Label(),
		Failures:    failures,
		Threshold:   s.config.FailureThreshold,
		Message:     "Too many permanent fetch failures; the window was discarded and the run aborted. The source may be blocking requests.",
		CreatedAt:   time.Now(),
	}
	if err := s.notify.SendAbortAlert(alert); err != nil {
		logrus.Errorf("Failed to send abort alert: %v", err)
	}
}
