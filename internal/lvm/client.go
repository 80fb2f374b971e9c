package lvm

import (
	"context"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Client issues LVM queries and mutations through a Runner.
//
// When dryRun is set every mutating call reports the command it would
// have run instead of executing it; queries always execute.
type Client struct {
	run    Runner
	log    logrus.FieldLogger
	dryRun bool
}

// NewClient creates a Client. The logger is required; pass a discard
// logger in tests.
func NewClient(run Runner, log logrus.FieldLogger, dryRun bool) *Client {
	return &Client{run: run, log: log, dryRun: dryRun}
}

// query runs a read-only command. A NotFoundRC exit is reported as
// found=false, any other non-zero exit becomes a CommandError.
func (c *Client) query(ctx context.Context, name string, args ...string) (out string, found bool, err error) {
	rc, stdout, stderr, err := c.run.Run(ctx, name, args...)
	if err != nil {
		return "", false, &CommandError{Args: append([]string{name}, args...), ExitCode: -1, Stderr: err.Error()}
	}
	switch {
	case rc == 0:
		return stdout, true, nil
	case rc == NotFoundRC:
		return "", false, nil
	default:
		return "", false, &CommandError{Args: append([]string{name}, args...), ExitCode: rc, Stderr: stderr}
	}
}

// mutate runs a state-changing command, honoring dry run.
func (c *Client) mutate(ctx context.Context, name string, args ...string) (string, error) {
	full := append([]string{name}, args...)
	if c.dryRun {
		msg := "Would run command " + strings.Join(full, " ")
		c.log.Info(msg)
		return msg, nil
	}

	c.log.WithField("command", strings.Join(full, " ")).Debug("running lvm command")
	rc, stdout, stderr, err := c.run.Run(ctx, name, args...)
	if err != nil {
		return "", &CommandError{Args: full, ExitCode: -1, Stderr: err.Error()}
	}
	if rc != 0 {
		return "", &CommandError{Args: full, ExitCode: rc, Stderr: stderr}
	}
	return stdout, nil
}

// LVExists reports whether the volume group and the logical volume
// exist. An empty lv name checks only the volume group.
func (c *Client) LVExists(ctx context.Context, vgName, lvName string) (vgExists, lvExists bool, err error) {
	if vgName == "" {
		return false, false, nil
	}

	_, vgExists, err = c.query(ctx, "lvs", vgName)
	if err != nil || !vgExists || lvName == "" {
		return vgExists, false, err
	}

	_, lvExists, err = c.query(ctx, "lvs", vgName+"/"+lvName)
	return vgExists, lvExists, err
}

// attrs looks up the attr string for one fully qualified volume.
// A missing volume is reported as found=false, not an error.
func (c *Client) attrs(ctx context.Context, vgName, lvName string) (string, bool, error) {
	out, found, err := c.query(ctx, "lvs",
		"--reportformat", "json",
		"--units", "B", "--nosuffix",
		"-o", "lv_name,vg_name,lv_attr,lv_size",
		vgName+"/"+lvName)
	if err != nil || !found {
		return "", false, err
	}

	info, err := decodeSingleLV(out)
	if err != nil {
		return "", false, err
	}
	return info.Attr, true, nil
}

// IsSnapshot reports whether vg/lv is a copy-on-write snapshot.
// A missing volume is false, not an error.
func (c *Client) IsSnapshot(ctx context.Context, vgName, lvName string) (bool, error) {
	attr, found, err := c.attrs(ctx, vgName, lvName)
	if err != nil || !found {
		return false, err
	}
	return IsSnapshotAttr(attr), nil
}

// IsThinpool reports whether vg/lv is a thin pool.
func (c *Client) IsThinpool(ctx context.Context, vgName, lvName string) (bool, error) {
	attr, found, err := c.attrs(ctx, vgName, lvName)
	if err != nil || !found {
		return false, err
	}
	return IsThinpoolAttr(attr), nil
}

// IsInUse reports whether vg/lv is currently open.
func (c *Client) IsInUse(ctx context.Context, vgName, lvName string) (bool, error) {
	attr, found, err := c.attrs(ctx, vgName, lvName)
	if err != nil || !found {
		return false, err
	}
	return IsOpenAttr(attr), nil
}

// FullReport queries the complete vg/lv inventory.
func (c *Client) FullReport(ctx context.Context) ([]ReportGroup, error) {
	out, found, err := c.query(ctx, "lvm",
		"fullreport",
		"--units", "B", "--nosuffix",
		"--configreport", "vg", "-o", "vg_name,vg_uuid,vg_size,vg_free,vg_extent_size",
		"--configreport", "lv", "-o", "lv_uuid,lv_name,lv_full_name,lv_path,lv_size,origin,origin_size,pool_lv,lv_tags,lv_attr,vg_name",
		"--configreport", "pv", "-o", "pv_name",
		"--reportformat", "json")
	if err != nil {
		return nil, err
	}
	if !found {
		// an empty inventory, not a failure
		return nil, nil
	}
	return decodeFullReport(out)
}

// CreateSnapshot creates a copy-on-write snapshot of vg/lv with the
// given name and size in bytes.
func (c *Client) CreateSnapshot(ctx context.Context, vgName, lvName, snapshotName string, size uint64) (string, error) {
	return c.mutate(ctx, "lvcreate",
		"-s", "-n", snapshotName,
		"-L", strconv.FormatUint(size, 10)+"B",
		vgName+"/"+lvName)
}

// ExtendLV grows vg/lv to the given size in bytes.
func (c *Client) ExtendLV(ctx context.Context, vgName, lvName string, size uint64) (string, error) {
	return c.mutate(ctx, "lvextend",
		"-L", strconv.FormatUint(size, 10)+"B",
		vgName+"/"+lvName)
}

// MergeRevert starts a merge of the snapshot back into its origin.
func (c *Client) MergeRevert(ctx context.Context, vgName, snapshotName string) (string, error) {
	return c.mutate(ctx, "lvconvert", "--merge", vgName+"/"+snapshotName)
}

// RemoveLV removes vg/lv without prompting.
func (c *Client) RemoveLV(ctx context.Context, vgName, lvName string) (string, error) {
	return c.mutate(ctx, "lvremove", "-y", vgName+"/"+lvName)
}
