package removal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/filevault/internal/client/journal"
	"github.com/allisson/filevault/internal/database"
	apperrors "github.com/allisson/filevault/internal/errors"
)

// Config holds reconciler configuration.
type Config struct {
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

// OperationRepository reads and updates journal entries.
type OperationRepository interface {
	GetPending(ctx context.Context, limit int) ([]*journal.Operation, error)
	Update(ctx context.Context, op *journal.Operation) error
}

// Summary counts the outcome of a reconciliation.
type Summary struct {
	Done    int
	Retried int
	Failed  int
}

func (s *Summary) add(other Summary) {
	s.Done += other.Done
	s.Retried += other.Retried
	s.Failed += other.Failed
}

// Reconciler replays journalled cleanups against the file API and the custodian.
type Reconciler struct {
	config    Config
	txManager database.TxManager
	repo      OperationRepository
	files     FilesAPI
	keys      KeyDeleter
	logger    *slog.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(
	config Config,
	txManager database.TxManager,
	repo OperationRepository,
	files FilesAPI,
	keys KeyDeleter,
	logger *slog.Logger,
) *Reconciler {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	return &Reconciler{
		config:    config,
		txManager: txManager,
		repo:      repo,
		files:     files,
		keys:      keys,
		logger:    logger,
	}
}

// Start runs ProcessPending on every tick until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) error {
	r.log(slog.LevelInfo, "starting journal reconciler",
		slog.Duration("interval", r.config.Interval),
		slog.Int("batch_size", r.config.BatchSize),
	)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log(slog.LevelInfo, "stopping journal reconciler")
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.ProcessPending(ctx); err != nil {
				r.log(slog.LevelError, "failed to process journal", slog.Any("error", err))
			}
		}
	}
}

// Run drains the journal: every pending operation is attempted at most once per call.
// Operations that stay pending are skipped by later batches of the same run.
func (r *Reconciler) Run(ctx context.Context) (Summary, error) {
	var total Summary
	tried := make(map[uuid.UUID]struct{})
	for {
		// Retried operations are still pending and sort among the fresh ones.
		limit := r.config.BatchSize + total.Retried
		batch, fetched, err := r.processBatch(ctx, limit, tried)
		total.add(batch)
		if err != nil {
			return total, err
		}

		if fetched < limit || batch.Done+batch.Retried+batch.Failed == 0 {
			return total, nil
		}
	}
}

// ProcessPending processes one batch of pending operations in a transaction.
func (r *Reconciler) ProcessPending(ctx context.Context) (Summary, error) {
	summary, _, err := r.processBatch(ctx, r.config.BatchSize, nil)
	return summary, err
}

// processBatch fetches up to limit pending operations and applies those not in tried,
// adding them to tried. It returns how many operations were fetched.
func (r *Reconciler) processBatch(ctx context.Context, limit int, tried map[uuid.UUID]struct{}) (Summary, int, error) {
	var (
		summary Summary
		fetched int
	)
	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		ops, err := r.repo.GetPending(ctx, limit)
		if err != nil {
			return err
		}
		fetched = len(ops)

		if len(ops) == 0 {
			return nil
		}

		r.log(slog.LevelInfo, "processing journal", slog.Int("count", len(ops)))

		for _, op := range ops {
			if err := ctx.Err(); err != nil {
				return err
			}
			if tried != nil {
				if _, ok := tried[op.ID]; ok {
					continue
				}
				tried[op.ID] = struct{}{}
			}

			if err := r.apply(ctx, op); err != nil {
				r.log(slog.LevelError, "failed to apply journal operation",
					slog.String("operation_id", op.ID.String()),
					slog.String("kind", string(op.Kind)),
					slog.String("file_id", op.FileID.String()),
					slog.Any("error", err),
				)

				op.Attempts++
				errorMsg := err.Error()
				op.LastError = &errorMsg
				if op.Attempts >= r.config.MaxAttempts {
					op.Status = journal.OperationStatusFailed
					summary.Failed++
				} else {
					summary.Retried++
				}
				op.UpdatedAt = time.Now().UTC()

				if err := r.repo.Update(ctx, op); err != nil {
					return err
				}
				continue
			}

			op.Attempts++
			op.Status = journal.OperationStatusDone
			op.LastError = nil
			op.UpdatedAt = time.Now().UTC()
			if err := r.repo.Update(ctx, op); err != nil {
				return err
			}
			summary.Done++
		}

		return nil
	})
	return summary, fetched, err
}

func (r *Reconciler) apply(ctx context.Context, op *journal.Operation) error {
	switch op.Kind {
	case journal.KindDeleteCiphertext:
		return ignoreNotFound(r.files.Delete(ctx, op.FileID))
	case journal.KindDeleteKey:
		return r.keys.Delete(ctx, op.FileID)
	default:
		return fmt.Errorf("unknown journal operation kind %q", op.Kind)
	}
}

func ignoreNotFound(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	return err
}

func (r *Reconciler) log(level slog.Level, msg string, attrs ...any) {
	if r.logger != nil {
		r.logger.Log(context.Background(), level, msg, attrs...)
	}
}
