package engine

import (
	"log/slog"
	"sync/atomic"

	"github.com/ironsheep/raster-tools-mcp/internal/logging"
)

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(logging.Discard())
}

// SetLogger sets the logger used by Run. By default the engine logs nothing;
// pass nil to restore that.
//
// Levels used:
//   - Info: run start and completion, throttled progress
//   - Debug: each completed work item
//   - Error: the failure that aborted a run
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = logging.Discard()
	}
	loggerPtr.Store(l)
}

func logger() *slog.Logger { return loggerPtr.Load() }
