package syncer

import (
	"context"

	"pvsync/diff"
	"pvsync/models"
)

// Source exposes keyed snapshots of one system of record, fetched fresh per
// run. Snapshots are transient: nothing here is persisted across runs.
type Source interface {
	FetchSites(ctx context.Context) (map[string]models.Site, error)
	FetchEquipment(ctx context.Context) (map[models.EquipmentKey]models.Equipment, error)
}

// Target is a Source that patches can be applied to. Appliers own their
// write policies: the database never deletes, the CMMS narrows updates to
// the fields it is allowed to touch.
type Target interface {
	Source
	ApplySitePatch(ctx context.Context, patch diff.PatchSet[models.Site]) error
	ApplyEquipmentPatch(ctx context.Context, patch diff.PatchSet[models.Equipment]) error
}
