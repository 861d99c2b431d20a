package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// RefreshTokenPurger deletes expired refresh tokens.
type RefreshTokenPurger interface {
	PurgeExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}

// ShareLinkPurger deletes expired share links.
type ShareLinkPurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// RunCleanExpired deletes refresh tokens and share links that expired before now.
//
// Requirements: Database must be migrated and accessible.
func RunCleanExpired(
	ctx context.Context,
	tokens RefreshTokenPurger,
	links ShareLinkPurger,
	logger *slog.Logger,
	writer io.Writer,
	now time.Time,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	tokenCount, err := tokens.PurgeExpiredRefreshTokens(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to purge refresh tokens: %w", err)
	}

	linkCount, err := links.PurgeExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to purge share links: %w", err)
	}

	logger.Info("cleanup completed",
		slog.Int64("refresh_tokens", tokenCount),
		slog.Int64("share_links", linkCount),
	)

	if format == "json" {
		return writeJSON(writer, map[string]any{
			"refresh_tokens": tokenCount,
			"share_links":    linkCount,
		})
	}

	_, err = fmt.Fprintf(writer,
		"Successfully deleted %d expired refresh token(s) and %d expired share link(s)\n",
		tokenCount, linkCount)
	return err
}
