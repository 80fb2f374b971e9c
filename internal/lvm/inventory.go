package lvm

import (
	"context"
	"regexp"
	"strings"
)

// DefaultChunkSize is the copy-on-write unit assumed for snapshot
// volumes when the report does not carry one.
const DefaultChunkSize = 65536

// Filter narrows a volume enumeration. Empty fields match everything.
type Filter struct {
	VG        string
	LV        string
	VGInclude *regexp.Regexp
	// OmitEmpty drops volume groups whose filtered lv list is empty.
	OmitEmpty bool
}

// Volumes enumerates (vg, lvs) groups from the live inventory, applying
// the filter. Group order follows the report.
func (c *Client) Volumes(ctx context.Context, f Filter) ([]ReportGroup, error) {
	groups, err := c.FullReport(ctx)
	if err != nil {
		return nil, err
	}

	var out []ReportGroup
	for _, g := range groups {
		if f.VG != "" && f.VG != g.VG.Name {
			continue
		}
		if f.VGInclude != nil && !f.VGInclude.MatchString(g.VG.Name) {
			continue
		}

		filtered := ReportGroup{VG: g.VG}
		for _, lv := range g.LVs {
			if f.LV != "" && f.LV != lv.Name {
				continue
			}
			filtered.LVs = append(filtered.LVs, lv)
		}

		if len(filtered.LVs) == 0 && f.OmitEmpty {
			continue
		}
		out = append(out, filtered)
	}

	return out, nil
}

// LVState holds the sizing facts for one logical volume.
type LVState struct {
	Size      uint64
	ChunkSize uint64
}

// VGState is a point-in-time capture of a volume group's capacity.
type VGState struct {
	Size       uint64
	Free       uint64
	ExtentSize uint64
	LVs        map[string]LVState
}

// SpaceState maps volume group names to their captured state. It is
// taken once at the start of a set-level operation and threaded through
// every per-volume step so that all sizing decisions in one invocation
// see the same inventory.
type SpaceState map[string]VGState

// CaptureSpaceState queries the inventory and snapshots the capacity
// facts of every volume group.
func (c *Client) CaptureSpaceState(ctx context.Context) (SpaceState, error) {
	groups, err := c.FullReport(ctx)
	if err != nil {
		return nil, err
	}

	state := make(SpaceState, len(groups))
	for _, g := range groups {
		vg := VGState{
			Size:       g.VG.Size,
			Free:       g.VG.Free,
			ExtentSize: g.VG.ExtentSize,
			LVs:        make(map[string]LVState, len(g.LVs)),
		}
		for _, lv := range g.LVs {
			vg.LVs[lv.Name] = LVState{Size: lv.Size, ChunkSize: DefaultChunkSize}
		}
		state[g.VG.Name] = vg

		c.log.WithFields(map[string]interface{}{
			"vg":          g.VG.Name,
			"vg_size":     vg.Size,
			"vg_free":     vg.Free,
			"extent_size": vg.ExtentSize,
			"lvs":         len(vg.LVs),
		}).Debug("captured volume group state")
	}

	return state, nil
}

// MountRecord is one findmnt record for a block device.
type MountRecord struct {
	Target  string `json:"target"`
	Source  string `json:"source"`
	FSType  string `json:"fstype"`
	Options string `json:"options"`
}

// MountPoints resolves the current mount points of a block device or
// mount path. An unmounted device yields an empty list, never an error:
// findmnt exits non-zero for anything it cannot find.
func (c *Client) MountPoints(ctx context.Context, target string) ([]MountRecord, error) {
	rc, out, _, err := c.run.Run(ctx, "findmnt", target, "-P")
	if err != nil {
		return nil, &CommandError{Args: []string{"findmnt", target, "-P"}, ExitCode: -1, Stderr: err.Error()}
	}
	if rc != 0 {
		return nil, nil
	}

	var records []MountRecord
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		records = append(records, parseFindmntPairs(line))
	}
	return records, nil
}

// parseFindmntPairs decodes one findmnt -P line of KEY="value" pairs.
func parseFindmntPairs(line string) MountRecord {
	var rec MountRecord
	for _, field := range strings.Fields(line) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"`)
		switch key {
		case "TARGET":
			rec.Target = value
		case "SOURCE":
			rec.Source = value
		case "FSTYPE":
			rec.FSType = value
		case "OPTIONS":
			rec.Options = value
		}
	}
	return rec
}
