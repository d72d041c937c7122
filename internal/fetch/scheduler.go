// Package fetch runs the scheduled sheet refresh: re-ingest on a cron
// schedule, write the digest, and post it to Slack when configured.
package fetch

import (
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"escalboard/internal/config"
	"escalboard/internal/dataset"
	"escalboard/internal/integrations/llm"
	slacknotify "escalboard/internal/integrations/slack"
	"escalboard/internal/report"
)

// RefreshAndReport re-ingests the sheet and produces the digest. It has no
// Slack dependency of its own so the refresh endpoint can reuse it.
func RefreshAndReport(cfg config.Config, svc *dataset.Service) (string, error) {
	result, err := svc.RefreshFromSheet()
	if err != nil {
		return "", err
	}

	table, quality := svc.Table()
	digest := report.BuildDigest(table, quality, report.Options{
		AnomalyWindow:    cfg.AnomalyWindow,
		AnomalyThreshold: cfg.AnomalyThreshold,
		ForecastWindow:   cfg.ForecastWindow,
		ForecastHorizon:  cfg.ForecastHorizon,
	}, time.Now().In(cfg.Location))

	if cfg.NarrativeConfigured() {
		if summary, err := llm.Summarize(cfg.AnthropicAPIKey, cfg.AnthropicModel, digest); err == nil {
			digest = "_" + strings.TrimSpace(summary) + "_\n\n" + digest
		}
		// A failed narrative never blocks the digest.
	}

	if path, err := report.WriteDigestFile(digest, cfg.ReportOutputDir, time.Now().In(cfg.Location)); err != nil {
		log.Printf("digest write error: %v", err)
	} else {
		log.Printf("digest written path=%s rows=%d", path, result.Rows)
	}
	return digest, nil
}

// StartRefreshScheduler starts a cron-based scheduler that periodically
// refreshes the sheet snapshot and posts the digest.
// The schedule is a standard 5-field cron expression (minute hour
// day-of-month month day-of-week). Examples: "0 9 * * *" (daily 9am),
// "0 9 * * 1" (Mondays 9am).
func StartRefreshScheduler(cfg config.Config, svc *dataset.Service, notifier *slacknotify.Notifier) {
	schedule := strings.TrimSpace(cfg.RefreshSchedule)
	if schedule == "" {
		log.Println("Scheduled refresh disabled (refresh_schedule not set)")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid refresh_schedule '%s': %v — scheduled refresh disabled", schedule, err)
		return
	}
	log.Printf("Sheet refresh scheduled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next refresh at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			digest, err := RefreshAndReport(cfg, svc)
			if err != nil {
				log.Printf("Scheduled refresh error: %v", err)
				continue
			}
			if notifier != nil {
				if err := notifier.PostDigest(digest); err != nil {
					log.Printf("Digest post error: %v", err)
				}
			}
		}
	}()
}
