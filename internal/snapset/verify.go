package snapset

import (
	"context"

	"github.com/jbweber/snapset/internal/config"
	"github.com/jbweber/snapset/internal/naming"
)

// Shared pre- and post-condition checks. Every operation kind composes
// these; each returns the first non-OK result it finds.

// verifyPercents checks that every volume carries a usable space
// percentage. The percentage is an integer strictly greater than 1.
func verifyPercents(set *config.SnapshotSet) Result {
	for _, vol := range set.Volumes {
		if vol.PercentSpaceRequired <= 1 {
			return fail(StatusInvalidPercent,
				"percent_space_required must be greater than 1 for %s/%s: %d",
				vol.VG, vol.LV, vol.PercentSpaceRequired)
		}
	}
	return ok()
}

// verifyNames checks that every derived snapshot name is legal.
func verifyNames(set *config.SnapshotSet) Result {
	for _, vol := range set.Volumes {
		if err := naming.CheckName(vol.LV, set.Name); err != nil {
			return fail(StatusNameTooLong, "%v", err)
		}
	}
	return ok()
}

// verifySourceExists checks one source vg/lv pair.
func (o *Orchestrator) verifySourceExists(ctx context.Context, vgName, lvName string) (Result, error) {
	vgExists, lvExists, err := o.lvm.LVExists(ctx, vgName, lvName)
	if err != nil {
		return failureFromError(err, StatusCommandFailed)
	}
	if vgName != "" && !vgExists {
		return fail(StatusSourceNotFound, "source volume group does not exist: %s", vgName), nil
	}
	if lvName != "" && !lvExists {
		return fail(StatusSourceNotFound, "source logical volume does not exist: %s/%s", vgName, lvName), nil
	}
	return ok(), nil
}

// verifySourcesExist checks that every member of the set names an
// existing source volume.
func (o *Orchestrator) verifySourcesExist(ctx context.Context, set *config.SnapshotSet) (Result, error) {
	for _, vol := range set.Volumes {
		res, err := o.verifySourceExists(ctx, vol.VG, vol.LV)
		if err != nil || !res.OK() {
			return res, err
		}
	}
	return ok(), nil
}

// verifyTargetsAbsent checks that no derived snapshot name is taken.
// An existing target that is itself a snapshot is reported in the
// existing set so create can collapse it to an idempotent no-op; an
// existing target that is not a snapshot blocks with NameConflict.
func (o *Orchestrator) verifyTargetsAbsent(ctx context.Context, set *config.SnapshotSet) (existing map[string]bool, res Result, err error) {
	existing = make(map[string]bool)
	for _, vol := range set.Volumes {
		snapshotName := naming.SnapshotName(vol.LV, set.Name)

		_, lvExists, err := o.lvm.LVExists(ctx, vol.VG, snapshotName)
		if err != nil {
			res, err := failureFromError(err, StatusCommandFailed)
			return nil, res, err
		}
		if !lvExists {
			continue
		}

		isSnapshot, err := o.lvm.IsSnapshot(ctx, vol.VG, snapshotName)
		if err != nil {
			res, err := failureFromError(err, StatusCommandFailed)
			return nil, res, err
		}
		if !isSnapshot {
			return nil, fail(StatusNameConflict,
				"LV with name %s/%s already exists and is not a snapshot", vol.VG, snapshotName), nil
		}
		existing[vol.VG+"/"+snapshotName] = true
	}
	return existing, ok(), nil
}

// verifyTargetIsSnapshot confirms the target exists and is a snapshot.
// missingStatus selects the failure code for an absent target because
// extend and revert classify absence differently.
func (o *Orchestrator) verifyTargetIsSnapshot(ctx context.Context, vgName, snapshotName string, missingStatus StatusCode) (Result, error) {
	_, lvExists, err := o.lvm.LVExists(ctx, vgName, snapshotName)
	if err != nil {
		return failureFromError(err, StatusCommandFailed)
	}
	if !lvExists {
		return fail(missingStatus, "snapshot not found with name: %s/%s", vgName, snapshotName), nil
	}

	isSnapshot, err := o.lvm.IsSnapshot(ctx, vgName, snapshotName)
	if err != nil {
		return failureFromError(err, StatusCommandFailed)
	}
	if !isSnapshot {
		return fail(StatusNotASnapshot, "LV with name %s/%s is not a snapshot", vgName, snapshotName), nil
	}
	return ok(), nil
}
