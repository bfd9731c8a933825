// Package syncer sequences the two reconciliation hops: monitoring platform
// into the database, then database into the CMMS, propagating foreign ids
// created along the way.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pvsync/diff"
	"pvsync/models"
)

// Delta is the add/update/delete count of one entity kind in one hop.
type Delta struct {
	Add    int `json:"add"`
	Update int `json:"update"`
	Delete int `json:"delete"`
}

// HopReport summarises one hop.
type HopReport struct {
	Sites     Delta `json:"sites"`
	Equipment Delta `json:"equipment"`
}

// Report summarises a whole run.
type Report struct {
	RunID          uuid.UUID `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	DryRun         bool      `json:"dry_run"`
	MonitoringToDB HopReport `json:"monitoring_to_db"`
	DBToCMMS       HopReport `json:"db_to_cmms"`
}

// Options configures a Syncer.
type Options struct {
	RunID  uuid.UUID
	DryRun bool
	Logger zerolog.Logger
}

// Syncer reconciles the three systems. Hops are strictly sequential: hop 2
// reads the database state hop 1 produced.
type Syncer struct {
	monitoring Source
	db         Target
	cmms       Target
	runID      uuid.UUID
	dryRun     bool
	log        zerolog.Logger
}

// New wires a Syncer. The monitoring source is authoritative for hop 1, the
// refreshed database for hop 2.
func New(monitoring Source, db, cmms Target, opts Options) *Syncer {
	runID := opts.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	return &Syncer{
		monitoring: monitoring,
		db:         db,
		cmms:       cmms,
		runID:      runID,
		dryRun:     opts.DryRun,
		log:        opts.Logger.With().Str("component", "syncer").Logger(),
	}
}

// Run executes both hops and returns the delta report. Any adapter error
// aborts the run; partial application is safe, the next run picks up the
// remaining diff.
func (s *Syncer) Run(ctx context.Context) (Report, error) {
	report := Report{
		RunID:     s.runID,
		StartedAt: time.Now(),
		DryRun:    s.dryRun,
	}

	if err := s.monitoringToDB(ctx, &report.MonitoringToDB); err != nil {
		return report, fmt.Errorf("hop monitoring->db: %w", err)
	}
	if err := s.dbToCMMS(ctx, &report.DBToCMMS); err != nil {
		return report, fmt.Errorf("hop db->cmms: %w", err)
	}

	report.FinishedAt = time.Now()
	return report, nil
}

// monitoringToDB makes the database mirror the monitoring platform.
func (s *Syncer) monitoringToDB(ctx context.Context, hop *HopReport) error {
	targetSites, err := s.monitoring.FetchSites(ctx)
	if err != nil {
		return err
	}
	targetEquips, err := s.monitoring.FetchEquipment(ctx)
	if err != nil {
		return err
	}
	currentSites, err := s.db.FetchSites(ctx)
	if err != nil {
		return err
	}
	currentEquips, err := s.db.FetchEquipment(ctx)
	if err != nil {
		return err
	}

	// The monitoring platform knows nothing about CMMS ids. Carry the
	// stored ones into the target, otherwise every run would "update"
	// them back to null.
	targetSites = carrySiteIDs(currentSites, targetSites)
	targetEquips = carryEquipmentIDs(currentEquips, targetEquips)

	sitePatch := diff.Entities(currentSites, targetSites)
	equipPatch := diff.Entities(currentEquips, targetEquips)
	s.logHop("monitoring->db", sitePatch, equipPatch)
	hop.Sites.Add, hop.Sites.Update, hop.Sites.Delete = sitePatch.Counts()
	hop.Equipment.Add, hop.Equipment.Update, hop.Equipment.Delete = equipPatch.Counts()

	if s.dryRun {
		return nil
	}
	if err := s.db.ApplySitePatch(ctx, sitePatch); err != nil {
		return err
	}
	return s.db.ApplyEquipmentPatch(ctx, equipPatch)
}

// dbToCMMS makes the CMMS mirror the refreshed database. The refresh is not
// optional: hop 1 may have inserted rows and assigned fields this hop must
// see.
func (s *Syncer) dbToCMMS(ctx context.Context, hop *HopReport) error {
	targetSites, err := s.db.FetchSites(ctx)
	if err != nil {
		return err
	}
	targetEquips, err := s.db.FetchEquipment(ctx)
	if err != nil {
		return err
	}
	currentSites, err := s.cmms.FetchSites(ctx)
	if err != nil {
		return err
	}
	currentEquips, err := s.cmms.FetchEquipment(ctx)
	if err != nil {
		return err
	}

	// Rows created in Yuman outside this tool carry an id the database
	// has not learned yet; forward it so the diff stays quiet about it.
	targetSites = carrySiteIDs(currentSites, targetSites)
	targetEquips = carryEquipmentIDs(currentEquips, targetEquips)

	sitePatch := diff.Entities(currentSites, targetSites)
	equipPatch := diff.Entities(currentEquips, targetEquips)
	s.logHop("db->cmms", sitePatch, equipPatch)
	hop.Sites.Add, hop.Sites.Update, hop.Sites.Delete = sitePatch.Counts()
	hop.Equipment.Add, hop.Equipment.Update, hop.Equipment.Delete = equipPatch.Counts()

	if s.dryRun {
		return nil
	}
	if err := s.cmms.ApplySitePatch(ctx, sitePatch); err != nil {
		return err
	}
	return s.cmms.ApplyEquipmentPatch(ctx, equipPatch)
}

func (s *Syncer) logHop(hop string, sites diff.PatchSet[models.Site], equips diff.PatchSet[models.Equipment]) {
	sa, su, sd := sites.Counts()
	ea, eu, ed := equips.Counts()
	s.log.Info().
		Str("hop", hop).
		Str("sites", fmt.Sprintf("+%d ~%d -%d", sa, su, sd)).
		Str("equipment", fmt.Sprintf("+%d ~%d -%d", ea, eu, ed)).
		Msg("delta")
}

// carrySiteIDs copies foreign ids known on the current side into target
// entities that lack one. A set foreign id is immutable: the current value
// always wins over nil, never the other way around.
func carrySiteIDs(current, target map[string]models.Site) map[string]models.Site {
	out := make(map[string]models.Site, len(target))
	for k, site := range target {
		if site.YumanSiteID == nil {
			if cur, ok := current[k]; ok && cur.YumanSiteID != nil {
				site.YumanSiteID = cur.YumanSiteID
			}
		}
		out[k] = site
	}
	return out
}

func carryEquipmentIDs(current, target map[models.EquipmentKey]models.Equipment) map[models.EquipmentKey]models.Equipment {
	out := make(map[models.EquipmentKey]models.Equipment, len(target))
	for k, eq := range target {
		if eq.YumanMaterialID == nil {
			if cur, ok := current[k]; ok && cur.YumanMaterialID != nil {
				eq.YumanMaterialID = cur.YumanMaterialID
			}
		}
		out[k] = eq
	}
	return out
}
