// Package snapset drives snapshot-set operations across the ordered
// volume list of a set: create, check, extend, revert, remove, list,
// mount and unmount, each with verify-only and dry-run modifiers.
//
// Every operation returns a (status, message, changed) Result and
// short-circuits on the first non-OK per-volume step. There is no
// rollback of earlier successes within one call; operations are instead
// written to be safe to re-run.
package snapset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/sirupsen/logrus"

	"github.com/jbweber/snapset/internal/config"
	"github.com/jbweber/snapset/internal/lvm"
	"github.com/jbweber/snapset/internal/mount"
	"github.com/jbweber/snapset/internal/naming"
)

// devPrefix is where LVM exposes logical volumes as block devices.
const devPrefix = "/dev"

// Orchestrator sequences verification, space accounting and volume
// manager calls for snapshot-set operations.
type Orchestrator struct {
	lvm    VolumeManager
	mnt    mount.Mounter
	log    logrus.FieldLogger
	dryRun bool
}

// New creates an Orchestrator. With dryRun set, mutating steps describe
// the command they would run instead of executing it and the result
// reports changed=false.
func New(vm VolumeManager, mnt mount.Mounter, log logrus.FieldLogger, dryRun bool) *Orchestrator {
	return &Orchestrator{lvm: vm, mnt: mnt, log: log, dryRun: dryRun}
}

// Operation is one of the eight snapshot-set operation kinds.
type Operation string

const (
	OpSnapshot Operation = "snapshot"
	OpCheck    Operation = "check"
	OpRemove   Operation = "remove"
	OpRevert   Operation = "revert"
	OpExtend   Operation = "extend"
	OpList     Operation = "list"
	OpMount    Operation = "mount"
	OpUmount   Operation = "umount"
)

// Run dispatches a set operation. verifyOnly asserts the expected end
// state of a prior run instead of mutating. The list operation has its
// own entry point because it returns data.
func (o *Orchestrator) Run(ctx context.Context, op Operation, set *config.SnapshotSet, verifyOnly bool) (Result, error) {
	switch op {
	case OpSnapshot:
		return o.CreateSet(ctx, set)
	case OpCheck:
		if verifyOnly {
			return o.CheckVerifySet(ctx, set)
		}
		res, _, err := o.precheckSet(ctx, set)
		res.Changed = false
		return res, err
	case OpRemove:
		if verifyOnly {
			return o.RemoveVerifySet(ctx, set)
		}
		return o.RemoveSet(ctx, set)
	case OpRevert:
		if verifyOnly {
			// revert and removal both converge to "snapshot no
			// longer exists", so revert verification is removal
			// verification
			return o.RemoveVerifySet(ctx, set)
		}
		return o.RevertSet(ctx, set)
	case OpExtend:
		if verifyOnly {
			return o.ExtendVerifySet(ctx, set)
		}
		return o.ExtendSet(ctx, set)
	case OpMount:
		return o.MountSet(ctx, set, verifyOnly)
	case OpUmount:
		return o.UnmountSet(ctx, set, verifyOnly)
	default:
		return fail(StatusInvalidParams, "unknown operation: %s", op), nil
	}
}

// failureFromError maps a lower layer error onto the status contract.
// Internal consistency faults stay Go errors and abort the invocation;
// everything else becomes a Result carrying the fallback status.
func failureFromError(err error, fallback StatusCode) (Result, error) {
	if errors.Is(err, lvm.ErrInconsistentReport) {
		return Result{}, fmt.Errorf("internal consistency fault: %w", err)
	}
	var parseErr *lvm.ParseError
	if errors.As(err, &parseErr) {
		return fail(StatusParseError, "%v", parseErr), nil
	}
	return fail(fallback, "%v", err), nil
}

// blockdevPath resolves the device path a volume spec operates on: the
// snapshot by default, the origin with MountOrigin, or an explicit
// blockdev override.
func blockdevPath(vol config.VolumeSpec, setName string) string {
	if vol.Blockdev != "" {
		return vol.Blockdev
	}
	lvName := vol.LV
	if !vol.MountOrigin {
		lvName = naming.SnapshotName(vol.LV, setName)
	}
	return path.Join(devPrefix, vol.VG, lvName)
}

// targetLV resolves the logical volume name a mount spec refers to.
func targetLV(vol config.VolumeSpec, setName string) string {
	if vol.MountOrigin {
		return vol.LV
	}
	return naming.SnapshotName(vol.LV, setName)
}

// isBlockDevice reports whether path names a block device.
func isBlockDevice(devPath string) (bool, error) {
	fi, err := os.Stat(devPath)
	if err != nil {
		return false, err
	}
	mode := fi.Mode()
	return mode&os.ModeDevice != 0 && mode&os.ModeCharDevice == 0, nil
}
