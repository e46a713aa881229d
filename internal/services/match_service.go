package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"test12/config"
	"test12/internal/engine"
	"test12/internal/status"
	"test12/internal/store"
	"test12/models"
	"test12/monitoring"
	"test12/utils"
)

const (
	ActionRemoveApp    = "remove_app"
	ActionCreateBundle = "create_bundle"
)

// MatchService is the single writer over the snapshot. Each operation loads
// the snapshot, reconciles it against the clock, applies its mutation,
// reconciles again and saves only when something changed.
type MatchService struct {
	Store   store.Store
	monitor *monitoring.Monitor

	opts              engine.Options
	maxFailedSessions int
	now               func() time.Time

	mu sync.Mutex
}

func NewMatchService(st store.Store, monitor *monitoring.Monitor, cfg *config.Config) *MatchService {
	opts := engine.DefaultOptions()
	maxFailed := engine.DefaultMaxFailedSessions
	if cfg != nil {
		opts = engine.Options{
			RoomSize:        cfg.RoomSize,
			SessionDuration: cfg.SessionDuration,
			HeartbeatTTL:    cfg.HeartbeatTTL,
		}
		maxFailed = cfg.MaxFailedSessions
	}
	return &MatchService{
		Store:             st,
		monitor:           monitor,
		opts:              opts,
		maxFailedSessions: maxFailed,
		now:               time.Now,
	}
}

func (m *MatchService) Options() engine.Options { return m.opts }

// mutation reports whether it changed the snapshot.
type mutation func(s *models.Snapshot, nowMs int64) (bool, error)

func (m *MatchService) withState(ctx context.Context, operation string, fn mutation) (res engine.Result, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	defer func() {
		switch {
		case err == nil:
			m.monitor.TrackOperation(operation, "ok")
		case status.IsRejection(err):
			m.monitor.TrackOperation(operation, status.Code(err))
		default:
			m.monitor.TrackOperation(operation, "error")
		}
	}()

	s, err := m.Store.Load(ctx)
	if err != nil {
		slog.Error("Failed to load snapshot", "operation", operation, "error", err)
		return res, fmt.Errorf("load snapshot: %w", err)
	}

	nowMs := m.now().UnixMilli()
	res = engine.Reconcile(s, nowMs, m.opts)
	changed := res.Changed

	var opErr error
	if fn != nil {
		mutated, ferr := fn(s, nowMs)
		opErr = ferr
		if ferr == nil && mutated {
			changed = true
			res.Merge(engine.Reconcile(s, nowMs, m.opts))
		}
	}

	if changed {
		if err := m.Store.Save(ctx, s); err != nil {
			slog.Error("Failed to save snapshot", "operation", operation, "error", err)
			return res, fmt.Errorf("save snapshot: %w", err)
		}
	}

	logReconcile(res)
	m.monitor.TrackReconcile(res)
	m.monitor.ObserveSnapshot(s)
	return res, opErr
}

func logReconcile(res engine.Result) {
	for _, id := range res.OpenedSessionIDs {
		slog.Info("Room opened", "session_id", id)
	}
	if len(res.CompletedAppIDs) > 0 {
		slog.Info("Rooms concluded", "app_ids", res.CompletedAppIDs)
	}
	for _, id := range res.ChainedAppIDs {
		slog.Info("Bundle drop chained", "app_id", id)
	}
}

type SubmitRequest struct {
	UserID    string `json:"user_id"`
	AppName   string `json:"app_name"`
	StoreLink string `json:"store_link"`
	BundleID  string `json:"bundle_id"`
}

type SubmitResult struct {
	App     *models.AppSubmission `json:"app"`
	Entry   *models.QueueEntry    `json:"entry"`
	Created bool                  `json:"created"`
	// Session is set when the submission filled a room straight away.
	Session *models.Session `json:"session,omitempty"`
}

func (m *MatchService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	sub := engine.Submission{
		UserID:   strings.TrimSpace(req.UserID),
		AppName:  strings.TrimSpace(req.AppName),
		BundleID: strings.TrimSpace(req.BundleID),
	}
	if sub.BundleID == "" {
		sub.StoreLink = utils.NormalizeLink(req.StoreLink)
		if sub.StoreLink != "" && !utils.IsLinkValid(sub.StoreLink) {
			m.monitor.TrackOperation("submit", status.Code(status.ErrInvalidSubmission))
			return nil, status.ErrInvalidSubmission
		}
	}

	var (
		result SubmitResult
		snap   *models.Snapshot
	)
	_, err := m.withState(ctx, "submit", func(s *models.Snapshot, nowMs int64) (bool, error) {
		app, created, err := engine.Submit(s, sub, nowMs, m.maxFailedSessions)
		if err != nil {
			return false, err
		}
		result.App = app
		result.Created = created
		snap = s
		return created, nil
	})
	if err != nil {
		return nil, err
	}
	if result.Created {
		slog.Info("Submission queued", "user_id", sub.UserID, "app_id", result.App.AppID, "bundle_id", sub.BundleID)
	}
	// snap already reflects the reconcile that followed the submission.
	result.Entry = snap.Entry(result.App.AppID)
	result.Session = snap.ActiveSessionFor(result.App.AppID)
	return &result, nil
}

func (m *MatchService) Heartbeat(ctx context.Context, userID string) (*models.QueueEntry, error) {
	userID = strings.TrimSpace(userID)
	var entry *models.QueueEntry
	_, err := m.withState(ctx, "heartbeat", func(s *models.Snapshot, nowMs int64) (bool, error) {
		q, err := engine.Heartbeat(s, userID, nowMs)
		if err != nil {
			return false, err
		}
		entry = q
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

type RecordTestRequest struct {
	UserID      string `json:"user_id"`
	TargetAppID string `json:"target_app_id"`
	Evidence    string `json:"evidence"`
}

func (m *MatchService) RecordTest(ctx context.Context, req RecordTestRequest) (*models.QueueEntry, error) {
	userID := strings.TrimSpace(req.UserID)
	target := strings.TrimSpace(req.TargetAppID)
	var entry *models.QueueEntry
	_, err := m.withState(ctx, "record_test", func(s *models.Snapshot, nowMs int64) (bool, error) {
		q, err := engine.RecordTest(s, userID, target, req.Evidence, nowMs)
		if err != nil {
			return false, err
		}
		entry = q
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Test recorded", "user_id", userID, "target_app_id", target, "tests_done", entry.TestsDone)
	return entry, nil
}

type UserView struct {
	NowMs         int64                   `json:"now_ms"`
	UserID        string                  `json:"user_id"`
	App           *models.AppSubmission   `json:"app"`
	Entry         *models.QueueEntry      `json:"entry"`
	QueuePosition int                     `json:"queue_position"`
	Session       *models.Session         `json:"session"`
	SessionApps   []*models.AppSubmission `json:"session_apps"`
	FormingRoom   *engine.RoomPreview     `json:"forming_room"`
	Stats         *models.UserStats       `json:"stats"`
	Bundles       []*models.ProDevBundle  `json:"bundles"`
}

// UserView reconciles, persisting anything that changed, and returns what
// the user needs to see.
func (m *MatchService) UserView(ctx context.Context, userID string) (*UserView, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, status.ErrInvalidSubmission
	}
	view := &UserView{UserID: userID, SessionApps: []*models.AppSubmission{}, Bundles: []*models.ProDevBundle{}}
	_, err := m.withState(ctx, "user_view", func(s *models.Snapshot, nowMs int64) (bool, error) {
		view.NowMs = nowMs
		view.Stats = s.UserStats[userID]
		for _, b := range s.Bundles {
			if b.UserID == userID {
				view.Bundles = append(view.Bundles, b)
			}
		}

		appID := s.AppIDForUser(userID)
		if appID == "" {
			return false, nil
		}
		view.App = s.Apps[appID]
		view.Entry = s.Entry(appID)
		view.QueuePosition = engine.QueuePosition(s, appID)
		view.FormingRoom = engine.FormingRoom(s, appID, m.opts)
		if sess := s.ActiveSessionFor(appID); sess != nil {
			view.Session = sess
			for _, id := range sess.AppIDs {
				if app, ok := s.Apps[id]; ok {
					view.SessionApps = append(view.SessionApps, app)
				}
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

type AdminStateView struct {
	NowMs    int64            `json:"now_ms"`
	Snapshot *models.Snapshot `json:"state"`
}

func (m *MatchService) AdminState(ctx context.Context) (*AdminStateView, error) {
	view := &AdminStateView{}
	_, err := m.withState(ctx, "admin_state", func(s *models.Snapshot, nowMs int64) (bool, error) {
		view.NowMs = nowMs
		view.Snapshot = s
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

type RemoveResult struct {
	Removed *models.AppSubmission `json:"removed"`
	Chained *models.AppSubmission `json:"chained,omitempty"`
}

func (m *MatchService) AdminRemove(ctx context.Context, appID, reason string) (*RemoveResult, error) {
	appID = strings.TrimSpace(appID)
	var result RemoveResult
	_, err := m.withState(ctx, "admin_remove", func(s *models.Snapshot, nowMs int64) (bool, error) {
		removed, chained, err := engine.Remove(s, appID, nowMs)
		if err != nil {
			return false, err
		}
		result.Removed = removed
		result.Chained = chained

		details := fmt.Sprintf("app_id=%s user_id=%s app_name=%q store_link=%s", removed.AppID, removed.UserID, removed.AppName, removed.StoreLink)
		if reason = strings.TrimSpace(reason); reason != "" {
			details += " reason=" + reason
		}
		appendAdminLog(s, nowMs, ActionRemoveApp, details)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("App removed by admin", "app_id", appID, "reason", reason)
	return &result, nil
}

type CreateBundleRequest struct {
	UserID     string          `json:"user_id"`
	AppName    string          `json:"app_name"`
	StoreLink  string          `json:"store_link"`
	Drops      int             `json:"drops"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
}

func (m *MatchService) CreateBundle(ctx context.Context, req CreateBundleRequest) (*models.ProDevBundle, error) {
	link := utils.NormalizeLink(req.StoreLink)
	if link != "" && !utils.IsLinkValid(link) {
		m.monitor.TrackOperation("create_bundle", status.Code(status.ErrInvalidBundle))
		return nil, status.ErrInvalidBundle
	}
	bundleID, err := utils.GenerateBundleID()
	if err != nil {
		return nil, fmt.Errorf("generate bundle id: %w", err)
	}

	var bundle *models.ProDevBundle
	_, err = m.withState(ctx, "create_bundle", func(s *models.Snapshot, nowMs int64) (bool, error) {
		b, err := engine.CreateBundle(s, engine.NewBundle{
			BundleID:   bundleID,
			UserID:     strings.TrimSpace(req.UserID),
			AppName:    strings.TrimSpace(req.AppName),
			StoreLink:  link,
			Drops:      req.Drops,
			AmountPaid: req.AmountPaid,
		}, nowMs)
		if err != nil {
			return false, err
		}
		bundle = b
		appendAdminLog(s, nowMs, ActionCreateBundle,
			fmt.Sprintf("bundle_id=%s user_id=%s drops=%d amount_paid=%s", b.BundleID, b.UserID, b.DropsTotal, b.AmountPaid.StringFixed(2)))
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Bundle created", "bundle_id", bundle.BundleID, "user_id", bundle.UserID, "drops", bundle.DropsTotal)
	return bundle, nil
}

// Sweep reconciles and persists without any other mutation.
func (m *MatchService) Sweep(ctx context.Context) (engine.Result, error) {
	return m.withState(ctx, "sweep", nil)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MatchService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Sweep(ctx); err != nil {
				slog.Error("Sweep failed", "error", err)
			}
		}
	}
}

func appendAdminLog(s *models.Snapshot, nowMs int64, action, details string) {
	s.AdminLog = append(s.AdminLog, models.AdminLogEntry{
		ID:      uuid.NewString(),
		At:      nowMs,
		Action:  action,
		Details: details,
	})
}
