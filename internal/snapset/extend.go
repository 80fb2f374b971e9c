package snapset

import (
	"context"

	units "github.com/docker/go-units"

	"github.com/jbweber/snapset/internal/config"
	"github.com/jbweber/snapset/internal/lvm"
	"github.com/jbweber/snapset/internal/naming"
	"github.com/jbweber/snapset/internal/space"
)

// snapshotSize looks up the current size of a snapshot in the captured
// state together with the size it should have.
func snapshotSize(state lvm.SpaceState, vgName, lvName, snapshotName string, percent int) (current, required uint64, res Result) {
	vg, found := state[vgName]
	if !found {
		return 0, 0, fail(StatusSourceNotFound, "volume group not in inventory: %s", vgName)
	}
	snap, found := vg.LVs[snapshotName]
	if !found {
		return 0, 0, fail(StatusSourceNotFound, "snapshot not in inventory: %s/%s", vgName, snapshotName)
	}

	required, err := space.Needed(state, vgName, lvName, percent)
	if err != nil {
		return 0, 0, fail(StatusSourceNotFound, "%v", err)
	}
	return snap.Size, required, ok()
}

// ExtendSet grows every snapshot of the set to the capacity its
// percentage currently requires. A snapshot that is already large
// enough is left alone. All sizing decisions in one call are made
// against a single inventory capture.
func (o *Orchestrator) ExtendSet(ctx context.Context, set *config.SnapshotSet) (Result, error) {
	o.log.WithField("snapset", set.Name).Info("extend snapshot set")

	if res := verifyPercents(set); !res.OK() {
		return res, nil
	}

	state, err := o.lvm.CaptureSpaceState(ctx)
	if err != nil {
		return failureFromError(err, StatusCommandFailed)
	}

	changed := false
	for _, vol := range set.Volumes {
		snapshotName := naming.SnapshotName(vol.LV, set.Name)

		res, err := o.verifyTargetIsSnapshot(ctx, vol.VG, snapshotName, StatusSourceNotFound)
		if err != nil || !res.OK() {
			return res.withChanged(changed), err
		}

		current, required, res := snapshotSize(state, vol.VG, vol.LV, snapshotName, vol.PercentSpaceRequired)
		if !res.OK() {
			return res.withChanged(changed), nil
		}
		if current >= required {
			continue
		}

		o.log.WithFields(map[string]interface{}{
			"snapshot": vol.VG + "/" + snapshotName,
			"current":  units.BytesSize(float64(current)),
			"required": units.BytesSize(float64(required)),
		}).Info("extending snapshot")

		if _, err := o.lvm.ExtendLV(ctx, vol.VG, snapshotName, required); err != nil {
			res, err := failureFromError(err, StatusExtendFailed)
			return res.withChanged(changed), err
		}
		if !o.dryRun {
			changed = true
		}
	}

	return okChanged(changed), nil
}

// ExtendVerifySet asserts that every snapshot of the set exists and is
// at least as large as its percentage currently requires. Read-only.
func (o *Orchestrator) ExtendVerifySet(ctx context.Context, set *config.SnapshotSet) (Result, error) {
	o.log.WithField("snapset", set.Name).Info("extend verify snapshot set")

	if res := verifyPercents(set); !res.OK() {
		return res, nil
	}

	state, err := o.lvm.CaptureSpaceState(ctx)
	if err != nil {
		return failureFromError(err, StatusCommandFailed)
	}

	for _, vol := range set.Volumes {
		snapshotName := naming.SnapshotName(vol.LV, set.Name)

		res, err := o.verifyTargetIsSnapshot(ctx, vol.VG, snapshotName, StatusVerifyFailed)
		if err != nil || !res.OK() {
			return res, err
		}

		current, required, res := snapshotSize(state, vol.VG, vol.LV, snapshotName, vol.PercentSpaceRequired)
		if !res.OK() {
			return res, nil
		}
		if current < required {
			return fail(StatusSizeInsufficient,
				"snapshot %s/%s is too small: %s current, %s required",
				vol.VG, snapshotName,
				units.BytesSize(float64(current)), units.BytesSize(float64(required))), nil
		}
	}

	return ok(), nil
}
