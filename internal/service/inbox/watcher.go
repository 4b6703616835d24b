package inbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/sos-sentinel/internal/domain/alert"
	"github.com/oshokin/sos-sentinel/internal/identity"
	"github.com/oshokin/sos-sentinel/internal/logger"
)

const (
	// DefaultTitle is shown for a record without a title.
	DefaultTitle = "New Notification"
	// DefaultText is shown for a record without a message.
	DefaultText = "You have a new notification!"
)

// RecordSource lists unread records of a user.
type RecordSource interface {
	UnreadRecords(ctx context.Context, userID string) ([]*alert.DistressRecord, error)
}

// UserSource resolves the signed-in user.
type UserSource interface {
	CurrentUserID(ctx context.Context) (string, error)
}

// Sink shows a notification.
type Sink interface {
	Show(ctx context.Context, title, text string)
}

// Watcher polls for unread records.
type Watcher struct {
	records  RecordSource
	users    UserSource
	sink     Sink
	interval time.Duration

	// mu protects seen.
	mu sync.Mutex
	// seen holds ids that were already shown.
	seen map[string]struct{}
}

// New creates a watcher polling every interval.
func New(records RecordSource, users UserSource, sink Sink, interval time.Duration) *Watcher {
	return &Watcher{
		records:  records,
		users:    users,
		sink:     sink,
		interval: interval,
		seen:     make(map[string]struct{}),
	}
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "inbox")

	logger.InfoKV(ctx, "Watching for distress records", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, inbox watcher exiting")

			return nil
		case <-ticker.C:
			if _, err := w.Check(ctx); err != nil {
				logger.ErrorKV(ctx, "Inbox check failed", "error", err)
			}
		}
	}
}

// Check shows every unread record not shown before and returns how many it showed.
// Without a signed-in user it does nothing.
func (w *Watcher) Check(ctx context.Context) (int, error) {
	userID, err := w.users.CurrentUserID(ctx)
	if errors.Is(err, identity.ErrNoSession) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("resolve user: %w", err)
	}

	records, err := w.records.UnreadRecords(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list unread records: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	shown := 0

	for _, record := range records {
		if _, ok := w.seen[record.ID]; ok {
			continue
		}

		w.seen[record.ID] = struct{}{}

		title, text := record.Title, record.Message
		if title == "" {
			title = DefaultTitle
		}

		if text == "" {
			text = DefaultText
		}

		w.sink.Show(ctx, title, text)

		shown++
	}

	return shown, nil
}
