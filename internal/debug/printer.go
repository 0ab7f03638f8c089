package debug

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/comicverse/txgate/internal/models"
)

// PrintResolution prints the resolution in JSON format
func PrintResolution(res *models.TransactionResolution) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	jsonData, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal resolution to JSON", "error", err)
		return
	}

	slog.Debug("Transaction resolution details", "json", string(jsonData))
}

// PrintVerdict prints the authorization verdict in JSON format
func PrintVerdict(verdict *models.AuthorizationVerdict) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	jsonData, err := json.MarshalIndent(verdict, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal verdict to JSON", "error", err)
		return
	}

	slog.Debug("Authorization verdict details", "json", string(jsonData))
}
