package snapset

import (
	"context"
	"errors"

	"github.com/jbweber/snapset/internal/config"
	"github.com/jbweber/snapset/internal/lvm"
	"github.com/jbweber/snapset/internal/naming"
	"github.com/jbweber/snapset/internal/space"
)

// createPlan carries the precheck outcome into the apply pass: the one
// inventory capture all sizing decisions are based on, and the targets
// that already exist as snapshots and collapse to no-ops.
type createPlan struct {
	state    lvm.SpaceState
	existing map[string]bool
}

// precheckSet verifies a whole set is creatable before any mutation:
// sources exist, targets are absent (or already our snapshots), names
// are legal, and every volume group can hold the snapshots claimed
// against it. The space check runs once, set-wide, against a single
// inventory capture.
func (o *Orchestrator) precheckSet(ctx context.Context, set *config.SnapshotSet) (Result, *createPlan, error) {
	if res := verifyPercents(set); !res.OK() {
		return res, nil, nil
	}

	res, err := o.verifySourcesExist(ctx, set)
	if err != nil || !res.OK() {
		return res, nil, err
	}

	existing, res, err := o.verifyTargetsAbsent(ctx, set)
	if err != nil || !res.OK() {
		return res, nil, err
	}

	if res := verifyNames(set); !res.OK() {
		return res, nil, nil
	}

	state, err := o.lvm.CaptureSpaceState(ctx)
	if err != nil {
		res, err := failureFromError(err, StatusCommandFailed)
		return res, nil, err
	}

	var claims []space.Claim
	for _, vol := range set.Volumes {
		if existing[vol.VG+"/"+naming.SnapshotName(vol.LV, set.Name)] {
			continue
		}
		claims = append(claims, space.Claim{VG: vol.VG, LV: vol.LV, Percent: vol.PercentSpaceRequired})
	}

	if err := space.CheckSetFeasibility(state, claims); err != nil {
		var insufficient *space.InsufficientSpaceError
		if errors.As(err, &insufficient) {
			return fail(StatusInsufficientSpace, "%v", err), nil, nil
		}
		// the inventory changed between the existence check and the
		// capture
		return fail(StatusSourceNotFound, "%v", err), nil, nil
	}

	return ok(), &createPlan{state: state, existing: existing}, nil
}

// CreateSet creates the snapshots of a set in volume order. A target
// that already exists as a snapshot is skipped, so re-running after a
// crash or partial run completes the set without error.
func (o *Orchestrator) CreateSet(ctx context.Context, set *config.SnapshotSet) (Result, error) {
	o.log.WithField("snapset", set.Name).Info("create snapshot set")

	res, plan, err := o.precheckSet(ctx, set)
	if err != nil || !res.OK() {
		return res, err
	}

	changed := false
	for _, vol := range set.Volumes {
		snapshotName := naming.SnapshotName(vol.LV, set.Name)
		if plan.existing[vol.VG+"/"+snapshotName] {
			continue
		}

		required, err := space.Needed(plan.state, vol.VG, vol.LV, vol.PercentSpaceRequired)
		if err != nil {
			return fail(StatusSourceNotFound, "%v", err).withChanged(changed), nil
		}

		if _, err := o.lvm.CreateSnapshot(ctx, vol.VG, vol.LV, snapshotName, required); err != nil {
			res, err := failureFromError(err, StatusCreateFailed)
			return res.withChanged(changed), err
		}
		if !o.dryRun {
			changed = true
		}
	}

	return okChanged(changed), nil
}
