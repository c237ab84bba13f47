package store

import (
	"context"
	"strings"

	"kelasbot/internal/config"
	"kelasbot/pkg/logx"
)

// Open initializes the configured backend and reports the driver actually
// in use. Selection happens exactly once; an unreachable Firestore
// downgrades to the file backend instead of failing startup, so the bot
// keeps working offline.
func Open(ctx context.Context, cfg config.StorageConfig, log logx.Logger) (Store, string, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "firestore", "document-store":
		st, err := openFirestore(ctx, cfg.ProjectID, cfg.CredentialsFile, log)
		if err != nil {
			log.Warn("firestore unavailable; falling back to file backend",
				logx.String("project", cfg.ProjectID), logx.Err(err))
			fs, ferr := openFile(cfg.Path, log)
			return fs, "file", ferr
		}
		log.Info("storage ready", logx.String("driver", "firestore"))
		return st, "firestore", nil
	case "", "file", "json":
		st, err := openFile(cfg.Path, log)
		if err != nil {
			return nil, "", err
		}
		log.Info("storage ready", logx.String("driver", "file"), logx.String("path", cfg.Path))
		return st, "file", nil
	default:
		log.Warn("unknown storage driver; using file backend", logx.String("driver", driver))
		st, err := openFile(cfg.Path, log)
		return st, "file", err
	}
}
