package snapset

import (
	"fmt"

	"github.com/google/uuid"
)

// StatusCode is the closed enumeration of operation outcomes. Every
// public operation returns exactly one.
type StatusCode int

const (
	StatusOK StatusCode = iota

	// Precondition failures (user fixable).
	StatusSourceNotFound
	StatusAlreadyExists
	StatusNameConflict
	StatusNameTooLong
	StatusInvalidParams
	StatusNotBlockDevice
	StatusInvalidPercent

	// State mismatch failures.
	StatusNotASnapshot
	StatusInUse
	StatusMountVerifyFailed
	StatusSizeInsufficient
	StatusVerifyFailed
	StatusSourceIsSnapshot

	// Capacity failures.
	StatusInsufficientSpace

	// External tool failures.
	StatusCommandFailed
	StatusParseError

	// Mutating step failures.
	StatusCreateFailed
	StatusExtendFailed
	StatusRevertFailed
	StatusRemoveFailed
	StatusMountFailed
	StatusUnmountFailed
)

var statusNames = map[StatusCode]string{
	StatusOK:                "ok",
	StatusSourceNotFound:    "source_not_found",
	StatusAlreadyExists:     "already_exists",
	StatusNameConflict:      "name_conflict",
	StatusNameTooLong:       "name_too_long",
	StatusInvalidParams:     "invalid_params",
	StatusNotBlockDevice:    "not_block_device",
	StatusInvalidPercent:    "invalid_percent_requested",
	StatusNotASnapshot:      "not_a_snapshot",
	StatusInUse:             "in_use",
	StatusMountVerifyFailed: "mount_verify_failed",
	StatusSizeInsufficient:  "size_insufficient",
	StatusVerifyFailed:      "verify_failed",
	StatusSourceIsSnapshot:  "source_is_snapshot",
	StatusInsufficientSpace: "insufficient_space",
	StatusCommandFailed:     "command_failed",
	StatusParseError:        "parse_error",
	StatusCreateFailed:      "create_failed",
	StatusExtendFailed:      "extend_failed",
	StatusRevertFailed:      "revert_failed",
	StatusRemoveFailed:      "remove_failed",
	StatusMountFailed:       "mount_failed",
	StatusUnmountFailed:     "unmount_failed",
}

// String returns the stable snake_case name of the status.
func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the uniform outcome contract of every operation: the
// terminating status, an explanatory message (empty on success unless
// informational) and whether any mutating external action was taken.
type Result struct {
	Status  StatusCode
	Message string
	Changed bool
}

// OK reports whether the result is a success.
func (r Result) OK() bool { return r.Status == StatusOK }

func ok() Result {
	return Result{Status: StatusOK}
}

func okChanged(changed bool) Result {
	return Result{Status: StatusOK, Changed: changed}
}

func fail(status StatusCode, format string, args ...interface{}) Result {
	return Result{Status: status, Message: fmt.Sprintf(format, args...)}
}

// withChanged preserves the changed flag accumulated before a failure,
// so callers know earlier volumes in the set were already acted on.
func (r Result) withChanged(changed bool) Result {
	r.Changed = changed
	return r
}

// ListData is the payload of the list operation: volume groups with
// their member volumes, and block devices with their current mounts.
type ListData struct {
	Volumes map[string][]VolumeRecord `json:"volumes" yaml:"volumes"`
	Mounts  map[string][]MountPoint   `json:"mounts" yaml:"mounts"`
}

// VolumeRecord is one logical volume in the list payload.
type VolumeRecord struct {
	Name     string `json:"lv_name" yaml:"lv_name"`
	FullName string `json:"lv_full_name" yaml:"lv_full_name"`
	Path     string `json:"lv_path" yaml:"lv_path"`
	Size     uint64 `json:"lv_size" yaml:"lv_size"`
	Origin   string `json:"origin,omitempty" yaml:"origin,omitempty"`
	PoolLV   string `json:"pool_lv,omitempty" yaml:"pool_lv,omitempty"`
	Attr     string `json:"lv_attr" yaml:"lv_attr"`
	Tags     string `json:"lv_tags,omitempty" yaml:"lv_tags,omitempty"`
}

// MountPoint is one findmnt record in the list payload.
type MountPoint struct {
	Target  string `json:"target" yaml:"target"`
	Source  string `json:"source" yaml:"source"`
	FSType  string `json:"fstype" yaml:"fstype"`
	Options string `json:"options" yaml:"options"`
}

// Report is the document handed back to the caller for one invocation.
type Report struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Command    string    `json:"command" yaml:"command"`
	Status     string    `json:"status" yaml:"status"`
	ReturnCode int       `json:"return_code" yaml:"return_code"`
	Errors     string    `json:"errors" yaml:"errors"`
	Changed    bool      `json:"changed" yaml:"changed"`
	Data       *ListData `json:"data,omitempty" yaml:"data,omitempty"`
}

// NewReport builds the result document for one operation run. The run
// ID lets automation correlate log lines with re-invocations.
func NewReport(op Operation, res Result, data *ListData) Report {
	return Report{
		RunID:      uuid.NewString(),
		Command:    string(op),
		Status:     res.Status.String(),
		ReturnCode: int(res.Status),
		Errors:     res.Message,
		Changed:    res.Changed,
		Data:       data,
	}
}
