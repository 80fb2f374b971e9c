// Package mount wraps the mount(8) and umount(8) system tools behind a
// tri-state interface: every call reports whether it changed anything,
// found the filesystem already in the desired state, or failed.
package mount

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// State is the outcome of a mount or unmount request.
type State int

const (
	// StateChanged means the action was performed (or described, in
	// dry run).
	StateChanged State = iota
	// StateAlreadyDone means the filesystem was already in the
	// desired state and nothing was run.
	StateAlreadyDone
	// StateFailed means the action was attempted and failed.
	StateFailed
)

// Mounter mounts and unmounts block devices.
//
// In production this is satisfied by ExecMounter. In tests it is
// satisfied by mock implementations.
type Mounter interface {
	// Mount mounts device on mountpoint, optionally creating the
	// mountpoint directory first. fstype and options may be empty.
	Mount(ctx context.Context, device, mountpoint, fstype, options string, create bool) (State, string)

	// Unmount unmounts the given device or mountpoint. With allTargets
	// every mount of the device is unmounted.
	Unmount(ctx context.Context, target string, allTargets bool) (State, string)
}

// Runner executes an external command, mirroring the volume manager
// runner so one exec implementation can serve both interfaces.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (rc int, stdout, stderr string, err error)
}

// ExecMounter shells out to mount(8) and umount(8).
type ExecMounter struct {
	run    Runner
	log    logrus.FieldLogger
	dryRun bool
}

// NewExecMounter creates an ExecMounter. With dryRun set, mutating
// calls report the command they would run instead of executing it.
func NewExecMounter(run Runner, log logrus.FieldLogger, dryRun bool) *ExecMounter {
	return &ExecMounter{run: run, log: log, dryRun: dryRun}
}

// Mount implements Mounter.
func (m *ExecMounter) Mount(ctx context.Context, device, mountpoint, fstype, options string, create bool) (State, string) {
	mounted, err := m.mountedAt(ctx, device, mountpoint)
	if err != nil {
		return StateFailed, err.Error()
	}
	if mounted {
		return StateAlreadyDone, fmt.Sprintf("%s is already mounted on %s", device, mountpoint)
	}

	args := []string{}
	if fstype != "" {
		args = append(args, "-t", fstype)
	}
	if options != "" {
		args = append(args, "-o", options)
	}
	args = append(args, device, mountpoint)

	if m.dryRun {
		msg := "Would run command mount " + strings.Join(args, " ")
		m.log.Info(msg)
		return StateChanged, msg
	}

	if create {
		if err := os.MkdirAll(mountpoint, 0o755); err != nil {
			return StateFailed, fmt.Sprintf("failed to create mountpoint %s: %v", mountpoint, err)
		}
	}

	rc, _, stderr, err := m.run.Run(ctx, "mount", args...)
	if err != nil {
		return StateFailed, err.Error()
	}
	if rc != 0 {
		return StateFailed, fmt.Sprintf("mount failed for %s on %s: %s", device, mountpoint, strings.TrimSpace(stderr))
	}

	m.log.WithFields(logrus.Fields{"device": device, "mountpoint": mountpoint}).Debug("mounted")
	return StateChanged, ""
}

// Unmount implements Mounter.
func (m *ExecMounter) Unmount(ctx context.Context, target string, allTargets bool) (State, string) {
	mounted, err := m.isMounted(ctx, target)
	if err != nil {
		return StateFailed, err.Error()
	}
	if !mounted {
		return StateAlreadyDone, fmt.Sprintf("%s is not mounted", target)
	}

	args := []string{}
	if allTargets {
		args = append(args, "--all-targets")
	}
	args = append(args, target)

	if m.dryRun {
		msg := "Would run command umount " + strings.Join(args, " ")
		m.log.Info(msg)
		return StateChanged, msg
	}

	rc, _, stderr, err := m.run.Run(ctx, "umount", args...)
	if err != nil {
		return StateFailed, err.Error()
	}
	if rc != 0 {
		return StateFailed, fmt.Sprintf("umount failed for %s: %s", target, strings.TrimSpace(stderr))
	}

	m.log.WithField("target", target).Debug("unmounted")
	return StateChanged, ""
}

// mountedAt reports whether device is currently mounted on mountpoint.
func (m *ExecMounter) mountedAt(ctx context.Context, device, mountpoint string) (bool, error) {
	targets, err := m.findmntTargets(ctx, device)
	if err != nil {
		return false, err
	}
	for _, target := range targets {
		if target == mountpoint {
			return true, nil
		}
	}
	return false, nil
}

// isMounted reports whether the device or mountpoint has any mount.
func (m *ExecMounter) isMounted(ctx context.Context, target string) (bool, error) {
	targets, err := m.findmntTargets(ctx, target)
	if err != nil {
		return false, err
	}
	return len(targets) > 0, nil
}

// findmntTargets lists the TARGET of every findmnt record for the
// given device or path. A non-zero findmnt exit means "not mounted".
func (m *ExecMounter) findmntTargets(ctx context.Context, target string) ([]string, error) {
	rc, out, _, err := m.run.Run(ctx, "findmnt", target, "-P")
	if err != nil {
		return nil, fmt.Errorf("failed to run findmnt: %w", err)
	}
	if rc != 0 {
		return nil, nil
	}

	var targets []string
	for _, line := range strings.Split(out, "\n") {
		for _, field := range strings.Fields(line) {
			if value, ok := strings.CutPrefix(field, "TARGET="); ok {
				targets = append(targets, strings.Trim(value, `"`))
			}
		}
	}
	return targets, nil
}
