package app

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"

	"escalboard/internal/config"
	"escalboard/internal/dataset"
	"escalboard/internal/fetch"
	"escalboard/internal/httpx"
	slacknotify "escalboard/internal/integrations/slack"
	"escalboard/internal/server"
	"escalboard/internal/storage/sqlite"
)

func Main() {
	cfg := config.LoadConfig()
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Listen=%s Sheet=%v CacheTTL=%ds AnomalyWindow=%d AnomalyThreshold=%.1f ForecastWindow=%d Timezone=%s ExternalHTTPTimeout=%s",
		cfg.ListenAddr, cfg.SheetConfigured(), cfg.CacheTTLSeconds,
		cfg.AnomalyWindow, cfg.AnomalyThreshold, cfg.ForecastWindow,
		cfg.Timezone, appliedHTTPTimeout,
	)

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	log.Printf("Database initialized at %s", cfg.DBPath)
	defer db.Close()

	os.MkdirAll(cfg.ReportOutputDir, 0755)

	data := dataset.New(cfg, db)

	var notifier *slacknotify.Notifier
	if cfg.SlackConfigured() {
		notifier = slacknotify.NewNotifier(cfg.SlackBotToken, cfg.SlackChannelID)
	}
	fetch.StartRefreshScheduler(cfg, data, notifier)

	srv := server.New(cfg, data)
	logged := handlers.LoggingHandler(os.Stdout, srv.Router())

	log.Printf("Escalation dashboard API listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, logged); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}
