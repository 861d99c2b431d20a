package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/allisson/filevault/internal/client/removal"
)

// JournalReconciler retries journalled cleanup operations.
type JournalReconciler interface {
	Run(ctx context.Context) (removal.Summary, error)
	Start(ctx context.Context) error
}

// RunReconcile drains the pending-operations journal once. With watch it keeps
// reconciling until SIGINT/SIGTERM.
func RunReconcile(
	ctx context.Context,
	reconciler JournalReconciler,
	logger *slog.Logger,
	writer io.Writer,
	watch bool,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	if watch {
		ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := reconciler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("reconciler error: %w", err)
		}
		return nil
	}

	summary, err := reconciler.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to reconcile journal: %w", err)
	}

	logger.Info("reconcile completed",
		slog.Int("done", summary.Done),
		slog.Int("retried", summary.Retried),
		slog.Int("failed", summary.Failed),
	)

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"done":    summary.Done,
			"retried": summary.Retried,
			"failed":  summary.Failed,
		})
	}

	_, err = fmt.Fprintf(writer, "Reconciled journal: %d done, %d retried, %d failed\n",
		summary.Done, summary.Retried, summary.Failed)
	return err
}
