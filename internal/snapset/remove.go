package snapset

import (
	"context"

	"github.com/jbweber/snapset/internal/config"
	"github.com/jbweber/snapset/internal/lvm"
	"github.com/jbweber/snapset/internal/naming"
)

// RemoveSet removes every snapshot of the set. The whole set is
// checked for busy snapshots before anything is removed, so an in-use
// member aborts the operation with no volumes touched. Missing
// snapshots are idempotent no-ops.
func (o *Orchestrator) RemoveSet(ctx context.Context, set *config.SnapshotSet) (Result, error) {
	o.log.WithField("snapset", set.Name).Info("remove snapshot set")

	// precheck pass: confirm the set is removable before removing any
	// member
	for _, vol := range set.Volumes {
		snapshotName := naming.SnapshotName(vol.LV, set.Name)

		vgExists, lvExists, err := o.lvm.LVExists(ctx, vol.VG, snapshotName)
		if err != nil {
			return failureFromError(err, StatusCommandFailed)
		}
		if !vgExists || !lvExists {
			continue
		}

		inUse, err := o.lvm.IsInUse(ctx, vol.VG, snapshotName)
		if err != nil {
			return failureFromError(err, StatusCommandFailed)
		}
		if inUse {
			return fail(StatusInUse, "volume is in use: %s/%s", vol.VG, snapshotName), nil
		}
	}

	changed := false
	for _, vol := range set.Volumes {
		snapshotName := naming.SnapshotName(vol.LV, set.Name)

		vgExists, lvExists, err := o.lvm.LVExists(ctx, vol.VG, snapshotName)
		if err != nil {
			res, err := failureFromError(err, StatusCommandFailed)
			return res.withChanged(changed), err
		}
		if !vgExists || !lvExists {
			continue
		}

		// a same-named ordinary volume must never be force-removed
		isSnapshot, err := o.lvm.IsSnapshot(ctx, vol.VG, snapshotName)
		if err != nil {
			res, err := failureFromError(err, StatusCommandFailed)
			return res.withChanged(changed), err
		}
		if !isSnapshot {
			return fail(StatusNotASnapshot,
				"%s/%s is not a snapshot", vol.VG, snapshotName).withChanged(changed), nil
		}

		if _, err := o.lvm.RemoveLV(ctx, vol.VG, snapshotName); err != nil {
			res, err := failureFromError(err, StatusRemoveFailed)
			return res.withChanged(changed), err
		}
		if !o.dryRun {
			changed = true
		}
	}

	return okChanged(changed), nil
}

// RemoveVerifySet asserts that no snapshot of the set remains.
func (o *Orchestrator) RemoveVerifySet(ctx context.Context, set *config.SnapshotSet) (Result, error) {
	o.log.WithField("snapset", set.Name).Info("remove verify snapshot set")

	for _, vol := range set.Volumes {
		snapshotName := naming.SnapshotName(vol.LV, set.Name)

		_, lvExists, err := o.lvm.LVExists(ctx, vol.VG, snapshotName)
		if err != nil {
			return failureFromError(err, StatusCommandFailed)
		}
		if lvExists {
			return fail(StatusVerifyFailed,
				"volume exists that matches the pattern: %s/%s", vol.VG, snapshotName), nil
		}
	}

	return ok(), nil
}

// RemoveVerifyAll asserts that no volume matched by the filter still
// has a snapshot carrying the suffix. When a fully qualified source is
// given it must itself not be a snapshot.
func (o *Orchestrator) RemoveVerifyAll(ctx context.Context, f lvm.Filter, suffix string) (Result, error) {
	if f.VG != "" && f.LV != "" {
		isSnapshot, err := o.lvm.IsSnapshot(ctx, f.VG, f.LV)
		if err != nil {
			return failureFromError(err, StatusCommandFailed)
		}
		if isSnapshot {
			return fail(StatusSourceIsSnapshot, "source is a snapshot: %s/%s", f.VG, f.LV), nil
		}
	}

	groups, err := o.lvm.Volumes(ctx, f)
	if err != nil {
		return failureFromError(err, StatusCommandFailed)
	}

	for _, group := range groups {
		for _, lv := range group.LVs {
			if lvm.IsSnapshotAttr(lv.Attr) {
				continue
			}

			snapshotName := naming.SnapshotName(lv.Name, suffix)
			_, lvExists, err := o.lvm.LVExists(ctx, group.VG.Name, snapshotName)
			if err != nil {
				return failureFromError(err, StatusCommandFailed)
			}
			if lvExists {
				return fail(StatusVerifyFailed,
					"volume exists that matches the pattern: %s/%s", group.VG.Name, snapshotName), nil
			}
		}
	}

	return ok(), nil
}
