package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/meqenet/meqenet-back/internal/excel"
	"github.com/meqenet/meqenet-back/internal/logger"
)

const jobTimeout = 5 * time.Minute

type RosterImporter interface {
	ImportFile(ctx context.Context, path string, defaultSchoolID uint) (*excel.Result, error)
}

// RosterJob re-imports the roster workbook at path. Sheets must be named by
// school id.
func RosterJob(importer RosterImporter, path string, log *logger.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		log.Info("Running roster import job", "path", path)
		res, err := importer.ImportFile(ctx, path, 0)
		if err != nil {
			log.Error("Roster import job failed", "path", path, "err", err)
			return
		}
		log.Info("Roster import job finished", "imported", res.Imported, "skipped", res.Skipped)
	}
}

// Start schedules the roster import when path is set. The returned scheduler
// is nil when there is nothing to run; stop it on shutdown.
func Start(schedule, path string, importer RosterImporter, log *logger.Logger) (*cron.Cron, error) {
	log = log.With("service", "cron")
	if path == "" {
		log.Info("Roster import disabled")
		return nil, nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, RosterJob(importer, path, log)); err != nil {
		return nil, fmt.Errorf("schedule roster import %q: %w", schedule, err)
	}
	c.Start()
	log.Info("Roster import scheduled", "schedule", schedule, "path", path)
	return c, nil
}
