package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frenesis/frenesis/internal/domain"
	"github.com/frenesis/frenesis/pkg/logger"
)

const historyWriteTimeout = 5 * time.Second

// Snapshot is a point-in-time view of the orchestrator
type Snapshot struct {
	State      domain.State            `json:"state"`
	Session    *domain.DownloadSession `json:"session,omitempty"`
	LastRecord *domain.HistoryRecord   `json:"last_record,omitempty"`
}

// DownloadOrchestrator drives at most one download at a time from request to
// a terminal state and commits every outcome to the history.
type DownloadOrchestrator struct {
	fetcher   domain.Fetcher
	validator domain.URLValidator
	history   *HistoryStore
	publisher domain.EventPublisher
	notifier  domain.Notifier
	reporter  *ProgressReporter
	config    *domain.DownloadConfig
	logger    *zap.Logger
	events    *logger.MultiLogger
	ids       *recordIDs

	mu      sync.Mutex
	state   domain.State
	session *activeSession
	last    *domain.HistoryRecord
	closed  bool
	closing chan struct{}
	wg      sync.WaitGroup
}

type activeSession struct {
	domain.DownloadSession
	cancel context.CancelFunc
}

// NewDownloadOrchestrator creates a new download orchestrator
func NewDownloadOrchestrator(
	fetcher domain.Fetcher,
	validator domain.URLValidator,
	history *HistoryStore,
	publisher domain.EventPublisher,
	notifier domain.Notifier,
	config *domain.DownloadConfig,
	log *zap.Logger,
	events *logger.MultiLogger,
) *DownloadOrchestrator {
	if log == nil {
		log = zap.NewNop()
	}

	return &DownloadOrchestrator{
		fetcher:   fetcher,
		validator: validator,
		history:   history,
		publisher: publisher,
		notifier:  notifier,
		reporter:  NewProgressReporter(config.TickInterval),
		config:    config,
		logger:    log,
		events:    events,
		ids:       &recordIDs{},
		state:     domain.StateIdle,
		closing:   make(chan struct{}),
	}
}

// Start validates the request and begins downloading it. It returns
// immediately; the outcome is delivered through events and the history.
func (o *DownloadOrchestrator) Start(req domain.DownloadRequest) (*domain.DownloadSession, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, domain.ErrShuttingDown
	}

	if o.state != domain.StateIdle {
		return nil, domain.ErrAlreadyInProgress
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return nil, fmt.Errorf("%w: empty url", domain.ErrInvalidURL)
	}
	if o.validator != nil && !o.validator.Valid(req.URL) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidURL, req.URL)
	}

	if req.Format == "" {
		req.Format = domain.DetectFormat(req.URL, domain.FormatVideo)
	}
	if !domain.ValidateFormat(req.Format) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidFormat, req.Format)
	}
	if req.Quality == "" {
		req.Quality = o.config.DefaultQuality(req.Format)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if o.config.MaxDuration > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), o.config.MaxDuration)
	}

	session := &activeSession{
		DownloadSession: domain.DownloadSession{
			ID:         uuid.New().String(),
			Request:    req,
			ETASeconds: -1,
			StartedAt:  time.Now(),
		},
		cancel: cancel,
	}

	if err := o.transition(domain.StateRunning); err != nil {
		cancel()
		return nil, err
	}
	o.session = session
	session.Status = domain.StateRunning

	o.logger.Info("Download started",
		zap.String("id", session.ID),
		zap.String("url", req.URL),
		zap.String("format", string(req.Format)),
		zap.String("quality", req.Quality))
	o.logEvent("download_started",
		zap.String("id", session.ID),
		zap.String("url", req.URL),
		zap.String("format", string(req.Format)))

	o.publish(domain.ProgressEvent(0, "Starting download..."))

	o.wg.Add(1)
	go o.run(ctx, session)

	snapshot := session.DownloadSession
	return &snapshot, nil
}

// Retry starts a new download from the request recorded under a history id
func (o *DownloadOrchestrator) Retry(ctx context.Context, id int64) (*domain.DownloadSession, error) {
	if o.history == nil {
		return nil, fmt.Errorf("%w: %d", domain.ErrRecordNotFound, id)
	}

	req, err := o.history.Retry(ctx, id)
	if err != nil {
		return nil, err
	}

	o.logger.Info("Retrying download", zap.Int64("record_id", id), zap.String("url", req.URL))
	return o.Start(req)
}

// Cancel requests cancellation of the running download. It reports false
// when there is no running download.
func (o *DownloadOrchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != domain.StateRunning {
		return false
	}

	if err := o.transition(domain.StateCanceling); err != nil {
		return false
	}
	o.session.cancel()

	o.logger.Info("Download cancel requested", zap.String("id", o.session.ID))
	o.logEvent("download_cancel_requested", zap.String("id", o.session.ID))
	return true
}

// Status returns the current state and a copy of the active session
func (o *DownloadOrchestrator) Status() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snapshot := Snapshot{State: o.state}
	if o.session != nil {
		session := o.session.DownloadSession
		snapshot.Session = &session
	}
	if o.last != nil {
		last := *o.last
		snapshot.LastRecord = &last
	}
	return snapshot
}

// Closed reports whether Close has been called
func (o *DownloadOrchestrator) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Close cancels any active download and waits for background work to stop
func (o *DownloadOrchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.closing)
		if o.state == domain.StateRunning {
			if err := o.transition(domain.StateCanceling); err == nil {
				o.session.cancel()
			}
		}
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run owns the fetch of one session and settles its outcome
func (o *DownloadOrchestrator) run(ctx context.Context, s *activeSession) {
	defer o.wg.Done()
	defer s.cancel()

	if o.notifier != nil {
		o.notifier.NotifyDownloadStarted(s.Request.URL)
	}

	reporterCtx, stopReporter := context.WithCancel(ctx)
	var reporterWg sync.WaitGroup
	reporterWg.Add(1)
	go func() {
		defer reporterWg.Done()
		o.reporter.Run(reporterCtx, o.sampler(s), o.reportTick)
	}()

	file, err := o.fetcher.Fetch(ctx, s.Request, o.progressHandler(s))

	stopReporter()
	reporterWg.Wait()

	o.finish(s, file, err)
}

// finish records the terminal outcome, waits out the display delay and
// returns to idle.
func (o *DownloadOrchestrator) finish(s *activeSession, file *domain.FileHandle, fetchErr error) {
	o.mu.Lock()

	var (
		outcome domain.State
		delay   time.Duration
		record  domain.HistoryRecord
		errMsg  string
	)

	switch {
	case o.state == domain.StateCanceling:
		outcome, delay = domain.StateCanceled, o.config.CancelGrace
		o.publish(domain.ProgressEvent(0, "Download canceled"))
		record = o.appendRecord(s, domain.HistoryCanceled, "Download canceled by user")

	case fetchErr == nil:
		outcome, delay = domain.StateCompleted, o.config.SettleDelay
		s.ProgressPercent = 100
		o.publish(domain.ProgressEvent(100, "Download complete!"))
		record = o.appendRecord(s, domain.HistorySuccess, domain.SuccessDetails(s.Request))

	default:
		outcome = domain.StateFailed
		errMsg = fetchErr.Error()
		if errors.Is(fetchErr, context.DeadlineExceeded) {
			errMsg = "download exceeded maximum duration"
		}
		o.publish(domain.ProgressEvent(0, "Error: "+errMsg))
		record = o.appendRecord(s, domain.HistoryFailed, errMsg)
	}

	if err := o.transition(outcome); err != nil {
		o.logger.Error("Invalid terminal transition", zap.Error(err))
	}
	s.Status = outcome
	o.mu.Unlock()

	fields := []zap.Field{
		zap.String("id", s.ID),
		zap.String("url", s.Request.URL),
		zap.String("status", string(outcome)),
		zap.Int64("record_id", record.ID),
	}
	switch outcome {
	case domain.StateCompleted:
		o.logger.Info("Download completed", fields...)
		o.logEvent("download_completed", fields...)
	case domain.StateCanceled:
		o.logger.Info("Download canceled", fields...)
		o.logEvent("download_canceled", fields...)
	default:
		o.logger.Warn("Download failed", append(fields, zap.String("error", errMsg))...)
		o.logEvent("download_failed", append(fields, zap.String("error", errMsg))...)
	}

	o.notify(outcome, s.Request.URL, record.Filename, fetchErr)
	o.wait(delay)

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.transition(domain.StateIdle); err != nil {
		o.logger.Error("Invalid idle transition", zap.Error(err))
	}
	o.session = nil

	if outcome == domain.StateCompleted {
		filename := record.Filename
		if file != nil && file.Name != "" {
			filename = file.Name
		}
		o.publish(domain.Event{
			Type:     domain.EventFileReady,
			Percent:  100,
			Filename: filename,
			Message:  fmt.Sprintf("Download complete! Your %s file is ready.", strings.ToUpper(string(s.Request.Format))),
		})
	}
}

// appendRecord commits an outcome to the history. Callers must hold o.mu.
func (o *DownloadOrchestrator) appendRecord(s *activeSession, status domain.HistoryStatus, details string) domain.HistoryRecord {
	now := time.Now()
	record := domain.NewHistoryRecord(o.ids.Next(now), s.Request, status, details, now)
	o.last = &record

	if o.history == nil {
		return record
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()

	if err := o.history.Append(ctx, record); err != nil {
		o.logger.Error("Failed to record download history",
			zap.String("id", s.ID),
			zap.Error(err))
		if o.events != nil {
			o.events.LogAppError("Failed to record download history",
				zap.String("id", s.ID),
				zap.Error(err))
		}
	}
	return record
}

// progressHandler applies fetcher progress to the session while it is running
func (o *DownloadOrchestrator) progressHandler(s *activeSession) domain.ProgressFunc {
	return func(p domain.FetchProgress) {
		o.mu.Lock()
		defer o.mu.Unlock()

		if o.session != s || o.state != domain.StateRunning {
			return
		}

		percent := p.Percent
		if percent > 100 {
			percent = 100
		}
		if percent > s.ProgressPercent {
			s.ProgressPercent = percent
		}
		if p.Speed != "" {
			s.Speed = p.Speed
		}
		s.ETASeconds = p.ETASeconds
	}
}

// sampler reads the session for the progress reporter
func (o *DownloadOrchestrator) sampler(s *activeSession) func() (ProgressUpdate, bool) {
	return func() (ProgressUpdate, bool) {
		o.mu.Lock()
		defer o.mu.Unlock()

		if o.session != s || o.state != domain.StateRunning {
			return ProgressUpdate{}, false
		}

		return ProgressUpdate{
			SessionID:  s.ID,
			Percent:    s.ProgressPercent,
			Message:    fmt.Sprintf("Downloading... %d%%", int(s.ProgressPercent)),
			Speed:      s.Speed,
			ETASeconds: s.ETASeconds,
		}, true
	}
}

// reportTick publishes a progress update, unless the session it was sampled
// from is no longer running.
func (o *DownloadOrchestrator) reportTick(update ProgressUpdate) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil || o.session.ID != update.SessionID || o.state != domain.StateRunning {
		return
	}

	o.publish(domain.ProgressEvent(update.Percent, update.Message))
	if update.Speed != "" {
		o.publish(domain.Event{Type: domain.EventSpeedUpdate, Text: "Speed: " + update.Speed})
	}
	o.publish(domain.Event{Type: domain.EventETAUpdate, Text: "ETA: " + domain.FormatETA(update.ETASeconds)})
}

// transition is the only place the state changes. Callers must hold o.mu.
func (o *DownloadOrchestrator) transition(next domain.State) error {
	if !o.state.CanTransitionTo(next) {
		return fmt.Errorf("illegal transition from %s to %s", o.state, next)
	}

	o.logger.Debug("State transition",
		zap.String("from", string(o.state)),
		zap.String("to", string(next)))

	o.state = next
	if o.session != nil && next.IsActive() {
		o.session.Status = next
	}
	return nil
}

// wait sleeps for d, cut short by Close
func (o *DownloadOrchestrator) wait(d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-o.closing:
	}
}

func (o *DownloadOrchestrator) publish(event domain.Event) {
	if o.publisher != nil {
		o.publisher.Publish(event)
	}
}

func (o *DownloadOrchestrator) notify(outcome domain.State, url, filename string, err error) {
	if o.notifier == nil {
		return
	}
	switch outcome {
	case domain.StateCompleted:
		o.notifier.NotifyDownloadCompleted(url, filename)
	case domain.StateCanceled:
		o.notifier.NotifyDownloadCanceled(url)
	default:
		o.notifier.NotifyDownloadFailed(url, err)
	}
}

func (o *DownloadOrchestrator) logEvent(event string, fields ...zap.Field) {
	if o.events != nil {
		o.events.LogDownloadEvent(event, fields...)
	}
}

// recordIDs hands out strictly increasing millisecond based record ids
type recordIDs struct {
	mu   sync.Mutex
	last int64
}

// Next returns an id derived from now, bumped past the previous id if needed
func (g *recordIDs) Next(now time.Time) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
