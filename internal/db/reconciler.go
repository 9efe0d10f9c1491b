package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

const reconcileQuery = `
UPDATE projects p
   SET episode_count = c.live, updated_at = now()
  FROM (
        SELECT pr.id, COUNT(e.id) AS live
          FROM projects pr
          LEFT JOIN episodes e ON e.project_id = pr.id
         GROUP BY pr.id
       ) c
 WHERE p.id = c.id
   AND p.episode_count <> c.live
`

// ReconcileEpisodeCounts rewrites projects.episode_count for every project
// whose cached value differs from its live episode count. It returns the
// number of repaired projects.
func ReconcileEpisodeCounts(ctx context.Context, db *sql.DB) (int64, error) {
	res, err := db.ExecContext(ctx, reconcileQuery)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// StartEpisodeCountReconciler runs ReconcileEpisodeCounts every interval
// until ctx is cancelled. A non-positive interval disables it.
func StartEpisodeCountReconciler(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	log *zap.Logger,
) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				repaired, err := ReconcileEpisodeCounts(ctx, db)
				if err != nil {
					log.Error("failed to reconcile episode counts", zap.Error(err))
					continue
				}
				if repaired > 0 {
					log.Warn("repaired drifted episode counts", zap.Int64("projects", repaired))
				}
			}
		}
	}()
}
