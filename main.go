package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pvsync/config"
	"pvsync/database"
	"pvsync/ratelimit"
	"pvsync/syncer"
	"pvsync/vcom"
	"pvsync/yuman"
)

func main() {
	envPath := flag.String("env", "settings.env", "env file with credentials (optional, environment wins)")
	cfgPath := flag.String("config", "sync.yaml", "sync tunables (optional)")
	dryRun := flag.Bool("dry-run", false, "compute and log diffs without applying anything")
	initSchema := flag.Bool("init-schema", false, "create mapping tables before syncing")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	runID := uuid.New()
	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Str("run_id", runID.String()).
		Logger()

	creds, err := config.LoadEnv(*envPath)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}
	settings, err := config.LoadSettings(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	ctx := context.Background()

	db, err := database.Connect(ctx, creds.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	if *initSchema {
		if err := db.InitSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("schema initialization failed")
		}
	}

	window := time.Minute
	vcomClient := vcom.NewClient(
		creds.VCOMBaseURL, creds.VCOMAPIKey,
		ratelimit.New(settings.VCOMRateLimit, window),
		settings.RequestTimeout(), log,
	)
	yumanClient := yuman.NewClient(
		creds.YumanBaseURL, creds.YumanAPIToken,
		ratelimit.New(settings.YumanRateLimit, window),
		settings.RequestTimeout(), log,
	)

	s := syncer.New(
		vcom.NewAdapter(vcomClient, log),
		db,
		yuman.NewAdapter(yumanClient, db, settings, log),
		syncer.Options{RunID: runID, DryRun: *dryRun || settings.DryRun, Logger: log},
	)

	started := time.Now()
	report, runErr := s.Run(ctx)
	if report.FinishedAt.IsZero() {
		report.FinishedAt = time.Now()
	}

	recordRun(ctx, db, report, started, runErr, log)

	if runErr != nil {
		// Fatal exits the process; close the pool first, the defer
		// never runs on this path.
		db.Close()
		log.Fatal().Err(runErr).Msg("sync failed")
	}
	log.Info().
		Int("site_adds", report.MonitoringToDB.Sites.Add+report.DBToCMMS.Sites.Add).
		Int("equipment_adds", report.MonitoringToDB.Equipment.Add+report.DBToCMMS.Equipment.Add).
		Dur("elapsed", time.Since(started)).
		Msg("sync complete")
}

// recordRun persists the run summary. History is best-effort: a failed
// insert must not turn a successful sync into a failed process.
func recordRun(ctx context.Context, db *database.Database, report syncer.Report, started time.Time, runErr error, log zerolog.Logger) {
	status := "ok"
	errText := ""
	if runErr != nil {
		status = "failed"
		errText = runErr.Error()
	}

	raw, err := json.Marshal(report)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal run report")
		raw = nil
	}

	rec := database.RunRecord{
		RunID:      report.RunID,
		StartedAt:  started,
		FinishedAt: report.FinishedAt,
		Status:     status,
		Error:      errText,
		ReportJSON: raw,
	}
	if err := db.RecordRun(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("failed to record sync run")
	}
}
