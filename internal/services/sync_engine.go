package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	apperrors "github.com/vedhub/mailsync/internal/errors"
	"github.com/vedhub/mailsync/internal/gmail"
	"github.com/vedhub/mailsync/internal/mime"
	"github.com/vedhub/mailsync/internal/models"
	"github.com/vedhub/mailsync/internal/repository"
	"github.com/vedhub/mailsync/internal/synclock"
)

// Page sizes for the single listing call of a pass
const (
	IncrementalPageSize int64 = 50
	FirstSyncPageSize   int64 = 25
)

// DefaultAlertsQuery narrows the alerts scope when none is configured
const DefaultAlertsQuery = "category:updates"

// Summary reports the outcome of one pass
type Summary struct {
	NewCount       int `json:"newCount"`
	UpdatedCount   int `json:"updatedCount"`
	TotalProcessed int `json:"totalProcessed"`
}

// SyncEngineConfig holds tuning for the sync engine
type SyncEngineConfig struct {
	// Workers is the number of messages fetched concurrently within a pass
	Workers int

	// AlertsQuery is the provider search that defines the alerts scope
	AlertsQuery string
}

// SyncEngine mirrors a user's mailbox and applies the user's changes to it
type SyncEngine interface {
	// RunOnce runs one incremental pass for a user and scope
	RunOnce(ctx context.Context, userID, scope string) (*Summary, error)

	// ApplyAction applies a user action remotely, then to the mirror
	ApplyAction(ctx context.Context, userID string, id uint, action Action) (*ActionResult, error)

	// Send sends a composed message and mirrors it as sent
	Send(ctx context.Context, userID string, msg gmail.Outgoing) (*models.MirroredMessage, error)

	// SaveDraft saves a composed message as a draft and mirrors it
	SaveDraft(ctx context.Context, userID string, msg gmail.Outgoing) (*models.MirroredMessage, error)

	// ListMessages lists mirrored messages in one category
	ListMessages(ctx context.Context, userID string, category models.Category, limit, offset int) ([]models.MessageListItem, int64, error)

	// GetMessage returns one mirrored message owned by userID
	GetMessage(ctx context.Context, userID string, id uint) (*models.MirroredMessage, error)

	// CountUnread counts the user's unread inbox rows
	CountUnread(ctx context.Context, userID string) (int64, error)
}

type syncEngine struct {
	client   gmail.Client
	messages repository.MessageRepository
	cursors  repository.CursorRepository
	locker   synclock.Locker
	notifier Notifier
	config   SyncEngineConfig
	now      func() time.Time
	logger   *slog.Logger
}

// SyncEngineOption customizes a SyncEngine
type SyncEngineOption func(*syncEngine)

// WithNotifier publishes sync and action events
func WithNotifier(n Notifier) SyncEngineOption {
	return func(e *syncEngine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithLocker replaces the in-process per-user lock
func WithLocker(l synclock.Locker) SyncEngineOption {
	return func(e *syncEngine) {
		if l != nil {
			e.locker = l
		}
	}
}

// WithEngineClock replaces time.Now
func WithEngineClock(now func() time.Time) SyncEngineOption {
	return func(e *syncEngine) { e.now = now }
}

// NewSyncEngine creates a new SyncEngine
func NewSyncEngine(
	client gmail.Client,
	messages repository.MessageRepository,
	cursors repository.CursorRepository,
	config SyncEngineConfig,
	logger *slog.Logger,
	opts ...SyncEngineOption,
) SyncEngine {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.AlertsQuery == "" {
		config.AlertsQuery = DefaultAlertsQuery
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &syncEngine{
		client:   client,
		messages: messages,
		cursors:  cursors,
		locker:   synclock.NewMemoryLocker(),
		notifier: NopNotifier{},
		config:   config,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// messageOutcome is the result of handling one listed id
type messageOutcome struct {
	created    bool
	receivedAt time.Time
	err        error
}

func (e *syncEngine) RunOnce(ctx context.Context, userID, scope string) (*Summary, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.ErrUnauthorized
	}
	baseQuery, err := e.scopeQuery(scope)
	if err != nil {
		return nil, err
	}

	release, err := e.locker.TryLock(ctx, userID)
	if err != nil {
		if errors.Is(err, synclock.ErrLocked) {
			return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrSyncInProgress)
		}
		return nil, apperrors.Wrap(err, "acquire sync lock")
	}
	defer release()

	var watermark time.Time
	cursor, err := e.cursors.Get(ctx, userID, scope)
	switch {
	case err == nil:
		watermark = cursor.Watermark
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.Persistence(err, "load sync cursor")
	}

	query, pageSize := buildQuery(baseQuery, watermark)
	refs, err := e.client.ListMessageIDs(ctx, userID, pageSize, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "list messages")
	}

	ids := uniqueIDs(refs)
	summary := &Summary{TotalProcessed: len(refs)}
	observed := watermark
	failed := 0

	for _, out := range e.processAll(ctx, userID, ids) {
		if out.err != nil {
			failed++
			continue
		}
		if out.created {
			summary.NewCount++
		} else {
			summary.UpdatedCount++
		}
		if out.receivedAt.After(observed) {
			observed = out.receivedAt
		}
	}

	// A pass cut short by its deadline may have skipped older ids; leave the cursor for the next one
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, "sync pass interrupted")
	}

	// A failed id may be older than everything stored; holding the watermark keeps it listed next pass
	if failed > 0 {
		observed = watermark
		e.logger.Warn("sync pass had message failures, watermark held",
			slog.String("user_id", userID),
			slog.String("scope", scope),
			slog.Int("failed", failed))
	}

	if _, err := e.cursors.Advance(ctx, userID, scope, observed, e.now()); err != nil {
		e.logger.Error("failed to advance sync cursor",
			slog.String("user_id", userID),
			slog.String("scope", scope),
			slog.Any("error", err))
	}

	e.logger.Info("sync pass completed",
		slog.String("user_id", userID),
		slog.String("scope", scope),
		slog.Int("new", summary.NewCount),
		slog.Int("updated", summary.UpdatedCount),
		slog.Int("total", summary.TotalProcessed))

	if summary.NewCount+summary.UpdatedCount > 0 {
		e.notifier.NotifySyncCompleted(userID, scope, *summary)
	}
	return summary, nil
}

// processAll fans ids out to the configured workers; each id goes to exactly one worker
func (e *syncEngine) processAll(ctx context.Context, userID string, ids []string) []messageOutcome {
	outcomes := make([]messageOutcome, len(ids))
	if len(ids) == 0 {
		return outcomes
	}

	workers := e.config.Workers
	if workers > len(ids) {
		workers = len(ids)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = e.processMessage(ctx, userID, ids[i])
			}
		}()
	}

	for i := range ids {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (e *syncEngine) processMessage(ctx context.Context, userID, externalID string) messageOutcome {
	msg, err := e.client.GetMessage(ctx, userID, externalID)
	if err != nil {
		e.logger.Warn("failed to fetch message",
			slog.String("user_id", userID),
			slog.String("message_id", externalID),
			slog.Any("error", err))
		return messageOutcome{err: err}
	}

	row := e.mirrorFromMessage(userID, msg)
	created, err := e.messages.Upsert(ctx, row)
	if err != nil {
		err = apperrors.Persistence(err, "upsert message")
		e.logger.Warn("failed to store message",
			slog.String("user_id", userID),
			slog.String("message_id", externalID),
			slog.Any("error", err))
		return messageOutcome{err: err}
	}

	return messageOutcome{created: created, receivedAt: row.ReceivedAt}
}

func (e *syncEngine) mirrorFromMessage(userID string, msg *gmail.Message) *models.MirroredMessage {
	now := e.now().UTC()
	headers := mime.ExtractHeaders(msg.Headers(), now)
	body := mime.ExtractBody(msg.Payload, msg.Snippet)

	received := msg.InternalDate
	if received.IsZero() {
		received = headers.Date
	}

	row := &models.MirroredMessage{
		UserID:        userID,
		ExternalID:    msg.ID,
		ThreadID:      msg.ThreadID,
		Subject:       headers.Subject,
		Sender:        headers.From,
		Recipient:     headers.To,
		Snippet:       msg.Snippet,
		BodyText:      body.Text,
		BodyHTML:      body.HTML,
		ReceivedAt:    received.UTC(),
		LastFetchedAt: now,
	}
	row.SetLabels(models.NewLabels(msg.LabelIDs...))
	return row
}

func (e *syncEngine) scopeQuery(scope string) (string, error) {
	switch scope {
	case models.ScopeMail:
		return "", nil
	case models.ScopeAlerts:
		return e.config.AlertsQuery, nil
	default:
		return "", apperrors.NewAppError(apperrors.ErrInvalidInput, fmt.Sprintf("unknown sync scope %q", scope), apperrors.CodeInvalidInput)
	}
}

// buildQuery bounds the listing by the watermark. Without one the pass is a first sync.
// after: is exclusive to the second, so the bound starts one second early and the
// watermark's own second is listed again.
func buildQuery(base string, watermark time.Time) (string, int64) {
	if watermark.IsZero() {
		return base, FirstSyncPageSize
	}
	after := fmt.Sprintf("after:%d", watermark.Unix()-1)
	if base == "" {
		return after, IncrementalPageSize
	}
	return base + " " + after, IncrementalPageSize
}

func uniqueIDs(refs []gmail.MessageRef) []string {
	seen := make(map[string]struct{}, len(refs))
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.ID == "" {
			continue
		}
		if _, ok := seen[ref.ID]; ok {
			continue
		}
		seen[ref.ID] = struct{}{}
		ids = append(ids, ref.ID)
	}
	return ids
}

func (e *syncEngine) ListMessages(ctx context.Context, userID string, category models.Category, limit, offset int) ([]models.MessageListItem, int64, error) {
	items, total, err := e.messages.ListByCategory(ctx, userID, category, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Persistence(err, "list messages")
	}
	return items, total, nil
}

func (e *syncEngine) GetMessage(ctx context.Context, userID string, id uint) (*models.MirroredMessage, error) {
	return e.ownedMessage(ctx, userID, id)
}

func (e *syncEngine) CountUnread(ctx context.Context, userID string) (int64, error) {
	count, err := e.messages.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.Persistence(err, "count unread")
	}
	return count, nil
}

// ownedMessage loads a row and hides rows that belong to another user
func (e *syncEngine) ownedMessage(ctx context.Context, userID string, id uint) (*models.MirroredMessage, error) {
	row, err := e.messages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, apperrors.Persistence(err, "load message")
	}
	if row.UserID != userID {
		return nil, apperrors.ErrMessageNotFound
	}
	return row, nil
}
