package snapset

import (
	"context"

	"github.com/jbweber/snapset/internal/config"
	"github.com/jbweber/snapset/internal/lvm"
	"github.com/jbweber/snapset/internal/naming"
)

// CheckVerifySet asserts that a prior create of the set completed:
// every source exists and every derived target exists as a snapshot.
// Read-only.
func (o *Orchestrator) CheckVerifySet(ctx context.Context, set *config.SnapshotSet) (Result, error) {
	o.log.WithField("snapset", set.Name).Info("check verify snapshot set")

	res, err := o.verifySourcesExist(ctx, set)
	if err != nil || !res.OK() {
		return res, err
	}

	for _, vol := range set.Volumes {
		snapshotName := naming.SnapshotName(vol.LV, set.Name)
		res, err := o.verifyTargetIsSnapshot(ctx, vol.VG, snapshotName, StatusVerifyFailed)
		if err != nil || !res.OK() {
			return res, err
		}
	}

	return ok(), nil
}

// CheckVerifyAll asserts that every non-snapshot volume matched by the
// filter has a snapshot carrying the suffix. Used for discovered sets
// spanning whole volume groups. With snapshotAll unset, a filter that
// matched nothing is itself a failure.
func (o *Orchestrator) CheckVerifyAll(ctx context.Context, f lvm.Filter, suffix string, snapshotAll bool) (Result, error) {
	groups, err := o.lvm.Volumes(ctx, f)
	if err != nil {
		return failureFromError(err, StatusCommandFailed)
	}

	vgFound := false
	lvFound := false
	for _, group := range groups {
		vgFound = true
		for _, lv := range group.LVs {
			lvFound = true
			// only origin volumes are expected to have a snapshot
			if lvm.IsSnapshotAttr(lv.Attr) {
				continue
			}

			snapshotName := naming.SnapshotName(lv.Name, suffix)
			res, err := o.verifyTargetIsSnapshot(ctx, group.VG.Name, snapshotName, StatusVerifyFailed)
			if err != nil || !res.OK() {
				return res, err
			}
		}
	}

	if !snapshotAll {
		if f.VG != "" && !vgFound {
			return fail(StatusSourceNotFound, "source volume group does not exist: %s", f.VG), nil
		}
		if f.LV != "" && !lvFound {
			return fail(StatusSourceNotFound, "source logical volume does not exist: %s/%s", f.VG, f.LV), nil
		}
	}

	return ok(), nil
}
