package snapset

import (
	"context"

	"github.com/jbweber/snapset/internal/config"
	"github.com/jbweber/snapset/internal/naming"
)

// RevertSet merges every snapshot of the set back into its origin. A
// snapshot that no longer exists was already reverted or removed and
// counts as success, keeping the operation safe to re-run; a target
// that exists but is not a snapshot is always a hard failure.
func (o *Orchestrator) RevertSet(ctx context.Context, set *config.SnapshotSet) (Result, error) {
	o.log.WithField("snapset", set.Name).Info("revert snapshot set")

	changed := false
	for _, vol := range set.Volumes {
		snapshotName := naming.SnapshotName(vol.LV, set.Name)

		_, lvExists, err := o.lvm.LVExists(ctx, vol.VG, snapshotName)
		if err != nil {
			res, err := failureFromError(err, StatusCommandFailed)
			return res.withChanged(changed), err
		}
		if !lvExists {
			continue
		}

		isSnapshot, err := o.lvm.IsSnapshot(ctx, vol.VG, snapshotName)
		if err != nil {
			res, err := failureFromError(err, StatusCommandFailed)
			return res.withChanged(changed), err
		}
		if !isSnapshot {
			return fail(StatusNotASnapshot,
				"LV with name %s/%s is not a snapshot", vol.VG, snapshotName).withChanged(changed), nil
		}

		if _, err := o.lvm.MergeRevert(ctx, vol.VG, snapshotName); err != nil {
			res, err := failureFromError(err, StatusRevertFailed)
			return res.withChanged(changed), err
		}
		if !o.dryRun {
			changed = true
		}
	}

	return okChanged(changed), nil
}
