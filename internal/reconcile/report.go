package reconcile

import (
	"context"
	"log/slog"

	"ex-cmdsync/pkg/cmdsync"
)

// logDifferences writes one record per difference ahead of a verbose overwrite.
func logDifferences(ctx context.Context, logger *slog.Logger, differences []cmdsync.Difference) {
	logger.InfoContext(ctx, "command differences found", "count", len(differences))
	for _, difference := range differences {
		logger.InfoContext(
			ctx,
			"command difference",
			"path", difference.Path,
			"original", difference.Original,
			"expected", difference.Expected,
		)
	}
}

// logFailures writes the aggregated failure count and each failure's detail.
func logFailures(ctx context.Context, logger *slog.Logger, failures []ExecutionFailure) {
	if len(failures) == 0 {
		return
	}

	logger.ErrorContext(ctx, "command registrations failed", "count", len(failures))
	for _, failure := range failures {
		attrs := []any{
			"command", failure.Command,
			"kind", failure.Kind.String(),
			"error", failure.Err,
		}
		if failure.GuildID != "" {
			attrs = append(attrs, "guild_id", failure.GuildID)
		}
		if failure.CommandID != "" {
			attrs = append(attrs, "command_id", failure.CommandID)
		}
		logger.ErrorContext(ctx, "command registration failed", attrs...)
	}
}
