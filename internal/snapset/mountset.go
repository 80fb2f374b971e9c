package snapset

import (
	"context"

	"github.com/jbweber/snapset/internal/config"
	"github.com/jbweber/snapset/internal/mount"
)

// MountSet mounts every volume of the set: the snapshot by default,
// the origin volume with mount_origin, or an explicit blockdev. A
// device already mounted on its mountpoint collapses to success.
func (o *Orchestrator) MountSet(ctx context.Context, set *config.SnapshotSet, verifyOnly bool) (Result, error) {
	o.log.WithField("snapset", set.Name).Info("mount snapshot set")

	changed := false
	for _, vol := range set.Volumes {
		if vol.Mountpoint == "" {
			return fail(StatusInvalidParams,
				"set item must provide a mountpoint for: %s/%s", vol.VG, vol.LV).withChanged(changed), nil
		}

		device, res, err := o.resolveMountDevice(ctx, vol, set.Name)
		if err != nil || !res.OK() {
			return res.withChanged(changed), err
		}

		if verifyOnly {
			res, err := o.mountVerify(ctx, device, vol.Mountpoint)
			if err != nil || !res.OK() {
				return res, err
			}
			continue
		}

		state, msg := o.mnt.Mount(ctx, device, vol.Mountpoint, vol.FSType, vol.MountOptions, vol.MountpointCreate)
		switch state {
		case mount.StateFailed:
			return fail(StatusMountFailed, "%s", msg).withChanged(changed), nil
		case mount.StateAlreadyDone:
			// already mounted where requested
		case mount.StateChanged:
			if !o.dryRun {
				changed = true
			}
		}
	}

	return okChanged(changed), nil
}

// resolveMountDevice determines the block device a spec operates on
// and verifies it is usable: derived devices must name an existing LV,
// explicit devices must be block devices.
func (o *Orchestrator) resolveMountDevice(ctx context.Context, vol config.VolumeSpec, setName string) (string, Result, error) {
	if vol.Blockdev != "" {
		isBlock, err := isBlockDevice(vol.Blockdev)
		if err != nil || !isBlock {
			return "", fail(StatusNotBlockDevice, "blockdev parameter is not a block device: %s", vol.Blockdev), nil
		}
		return vol.Blockdev, ok(), nil
	}

	res, err := o.verifySourceExists(ctx, vol.VG, targetLV(vol, setName))
	if err != nil || !res.OK() {
		return "", res, err
	}
	return blockdevPath(vol, setName), ok(), nil
}

// mountVerify asserts the device is currently mounted exactly on the
// expected mountpoint.
func (o *Orchestrator) mountVerify(ctx context.Context, device, mountpoint string) (Result, error) {
	records, err := o.lvm.MountPoints(ctx, device)
	if err != nil {
		return failureFromError(err, StatusCommandFailed)
	}
	if len(records) == 0 {
		return fail(StatusMountVerifyFailed, "blockdev not mounted on any mountpoint: %s", device), nil
	}

	for _, rec := range records {
		if rec.Target == mountpoint {
			return ok(), nil
		}
	}
	return fail(StatusMountVerifyFailed,
		"blockdev not mounted on specified mountpoint: %s %s", device, mountpoint), nil
}

// UnmountSet unmounts every volume of the set. An already unmounted
// target collapses to success.
func (o *Orchestrator) UnmountSet(ctx context.Context, set *config.SnapshotSet, verifyOnly bool) (Result, error) {
	o.log.WithField("snapset", set.Name).Info("umount snapshot set")

	changed := false
	for _, vol := range set.Volumes {
		if vol.Mountpoint == "" {
			return fail(StatusInvalidParams,
				"set item must provide a mountpoint for: %s/%s", vol.VG, vol.LV).withChanged(changed), nil
		}

		device := blockdevPath(vol, set.Name)

		if verifyOnly {
			res, err := o.umountVerify(ctx, device, vol.Mountpoint)
			if err != nil || !res.OK() {
				return res, err
			}
			continue
		}

		res, err := o.verifySourceExists(ctx, vol.VG, targetLV(vol, set.Name))
		if err != nil || !res.OK() {
			return res.withChanged(changed), err
		}

		state, msg := o.mnt.Unmount(ctx, vol.Mountpoint, vol.AllTargets)
		switch state {
		case mount.StateFailed:
			return fail(StatusUnmountFailed, "%s", msg).withChanged(changed), nil
		case mount.StateAlreadyDone:
			// already unmounted
		case mount.StateChanged:
			if !o.dryRun {
				changed = true
			}
		}
	}

	return okChanged(changed), nil
}

// umountVerify asserts that neither the device nor the mountpoint has
// a remaining mount.
func (o *Orchestrator) umountVerify(ctx context.Context, device, mountpoint string) (Result, error) {
	records, err := o.lvm.MountPoints(ctx, mountpoint)
	if err != nil {
		return failureFromError(err, StatusCommandFailed)
	}

	for _, rec := range records {
		if rec.Source == device {
			return fail(StatusMountVerifyFailed, "device is mounted on mountpoint: %s", device), nil
		}
		if rec.Target == mountpoint {
			return fail(StatusMountVerifyFailed, "device is mounted on mountpoint: %s", mountpoint), nil
		}
	}

	return ok(), nil
}
