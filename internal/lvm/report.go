package lvm

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// VGInfo holds the capacity facts reported for one volume group.
type VGInfo struct {
	Name       string
	UUID       string
	Size       uint64
	Free       uint64
	ExtentSize uint64
}

// LVInfo holds the report fields for one logical volume.
type LVInfo struct {
	Name       string `json:"lv_name"`
	FullName   string `json:"lv_full_name"`
	Path       string `json:"lv_path"`
	UUID       string `json:"lv_uuid"`
	VGName     string `json:"vg_name"`
	Size       uint64 `json:"-"`
	Origin     string `json:"origin"`
	OriginSize uint64 `json:"-"`
	PoolLV     string `json:"pool_lv"`
	Tags       string `json:"lv_tags"`
	Attr       string `json:"lv_attr"`
}

// ReportGroup pairs a volume group with its member logical volumes as
// returned by a single fullreport section.
type ReportGroup struct {
	VG  VGInfo
	LVs []LVInfo
}

// Attribute probes over the lv_attr field. Position 0 encodes the
// volume type, position 5 the device open state.

// IsSnapshotAttr reports whether the attr string describes a
// copy-on-write snapshot volume.
func IsSnapshotAttr(attr string) bool {
	return len(attr) > 0 && attr[0] == 's'
}

// IsThinpoolAttr reports whether the attr string describes a thin pool.
func IsThinpoolAttr(attr string) bool {
	return len(attr) > 0 && attr[0] == 't'
}

// IsOpenAttr reports whether the attr string describes a volume that is
// currently open (busy).
func IsOpenAttr(attr string) bool {
	return len(attr) > 5 && attr[5] == 'o'
}

// rawReport mirrors the envelope of the JSON emitted by
// "lvm fullreport --reportformat json" and "lvs --reportformat json".
// All numeric fields arrive as strings because the tools are invoked
// with --units B --nosuffix.
type rawReport struct {
	Report []rawReportSection `json:"report"`
}

type rawReportSection struct {
	VG []rawVG `json:"vg"`
	LV []rawLV `json:"lv"`
}

type rawVG struct {
	Name       string `json:"vg_name"`
	UUID       string `json:"vg_uuid"`
	Size       string `json:"vg_size"`
	Free       string `json:"vg_free"`
	ExtentSize string `json:"vg_extent_size"`
}

type rawLV struct {
	Name       string `json:"lv_name"`
	FullName   string `json:"lv_full_name"`
	Path       string `json:"lv_path"`
	UUID       string `json:"lv_uuid"`
	VGName     string `json:"vg_name"`
	Size       string `json:"lv_size"`
	Origin     string `json:"origin"`
	OriginSize string `json:"origin_size"`
	PoolLV     string `json:"pool_lv"`
	Tags       string `json:"lv_tags"`
	Attr       string `json:"lv_attr"`
}

func (v rawVG) toInfo() (VGInfo, error) {
	size, err := parseBytes(v.Size)
	if err != nil {
		return VGInfo{}, fmt.Errorf("vg %s: vg_size: %w", v.Name, err)
	}
	free, err := parseBytes(v.Free)
	if err != nil {
		return VGInfo{}, fmt.Errorf("vg %s: vg_free: %w", v.Name, err)
	}
	extent, err := parseBytes(v.ExtentSize)
	if err != nil {
		return VGInfo{}, fmt.Errorf("vg %s: vg_extent_size: %w", v.Name, err)
	}
	return VGInfo{
		Name:       v.Name,
		UUID:       v.UUID,
		Size:       size,
		Free:       free,
		ExtentSize: extent,
	}, nil
}

func (l rawLV) toInfo() (LVInfo, error) {
	// lv_size is only present when the caller requested the column;
	// origin_size is empty for non-snapshot volumes.
	var size, originSize uint64
	var err error
	if l.Size != "" {
		size, err = parseBytes(l.Size)
		if err != nil {
			return LVInfo{}, fmt.Errorf("lv %s: lv_size: %w", l.Name, err)
		}
	}
	if l.OriginSize != "" {
		originSize, err = parseBytes(l.OriginSize)
		if err != nil {
			return LVInfo{}, fmt.Errorf("lv %s: origin_size: %w", l.Name, err)
		}
	}
	return LVInfo{
		Name:       l.Name,
		FullName:   l.FullName,
		Path:       l.Path,
		UUID:       l.UUID,
		VGName:     l.VGName,
		Size:       size,
		Origin:     l.Origin,
		OriginSize: originSize,
		PoolLV:     l.PoolLV,
		Tags:       l.Tags,
		Attr:       l.Attr,
	}, nil
}

func parseBytes(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not a byte count: %q", s)
	}
	return n, nil
}

// decodeFullReport decodes the output of "lvm fullreport" into
// (vg, lvs) groups, skipping report sections without a volume group.
func decodeFullReport(output string) ([]ReportGroup, error) {
	var raw rawReport
	if err := json.Unmarshal([]byte(output), &raw); err != nil {
		return nil, &ParseError{Cmd: "lvm fullreport", Err: err}
	}

	var groups []ReportGroup
	for _, section := range raw.Report {
		if len(section.VG) == 0 || section.VG[0].Name == "" {
			continue
		}
		vg, err := section.VG[0].toInfo()
		if err != nil {
			return nil, &ParseError{Cmd: "lvm fullreport", Err: err}
		}
		group := ReportGroup{VG: vg}
		for _, lv := range section.LV {
			info, err := lv.toInfo()
			if err != nil {
				return nil, &ParseError{Cmd: "lvm fullreport", Err: err}
			}
			group.LVs = append(group.LVs, info)
		}
		groups = append(groups, group)
	}

	return groups, nil
}

// decodeSingleLV decodes the output of an "lvs vg/lv" query for one
// fully qualified volume. More than one record is impossible by LVM
// construction and is reported as ErrInconsistentReport.
func decodeSingleLV(output string) (LVInfo, error) {
	var raw rawReport
	if err := json.Unmarshal([]byte(output), &raw); err != nil {
		return LVInfo{}, &ParseError{Cmd: "lvs", Err: err}
	}

	if len(raw.Report) == 0 || len(raw.Report[0].LV) == 0 {
		return LVInfo{}, &ParseError{Cmd: "lvs", Err: fmt.Errorf("report contains no lv records")}
	}
	if len(raw.Report) > 1 || len(raw.Report[0].LV) > 1 {
		return LVInfo{}, ErrInconsistentReport
	}

	info, err := raw.Report[0].LV[0].toInfo()
	if err != nil {
		return LVInfo{}, &ParseError{Cmd: "lvs", Err: err}
	}
	if info.Attr == "" {
		return LVInfo{}, ErrInconsistentReport
	}
	return info, nil
}
