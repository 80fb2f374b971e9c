package output

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/snapset/internal/snapset"
)

func sampleReport() snapset.Report {
	return snapset.Report{
		RunID:      "3e6d34b2-0000-4000-8000-000000000000",
		Command:    "list",
		Status:     "ok",
		ReturnCode: 0,
		Changed:    false,
		Data: &snapset.ListData{
			Volumes: map[string][]snapset.VolumeRecord{
				"vg00": {
					{Name: "data", FullName: "vg00/data", Path: "/dev/vg00/data", Size: 10737418240, Attr: "-wi-ao----"},
					{Name: "data_nightly", FullName: "vg00/data_nightly", Path: "/dev/vg00/data_nightly",
						Size: 2147483648, Origin: "data", Attr: "swi-a-s---"},
				},
			},
			Mounts: map[string][]snapset.MountPoint{
				"/dev/vg00/data_nightly": {
					{Target: "/mnt/snap", Source: "/dev/mapper/vg00-data_nightly", FSType: "xfs", Options: "rw"},
				},
			},
		},
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"table", false},
		{"yaml", false},
		{"json", false},
		{"xml", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			_, err := NewFormatter(Options{Format: Format(tt.format)})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFormatter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if err := ValidateFormat(tt.format); (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
		})
	}
}

func TestTableFormatter(t *testing.T) {
	f := &TableFormatter{}
	got, err := f.FormatReport(sampleReport())
	if err != nil {
		t.Fatalf("FormatReport() error = %v", err)
	}

	for _, want := range []string{
		"COMMAND", "STATUS", "CHANGED",
		"VG", "LV", "SIZE", "ATTR",
		"data_nightly", "2GiB",
		"SOURCE", "TARGET", "/mnt/snap",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
}

func TestTableFormatter_NoHeaders(t *testing.T) {
	f := &TableFormatter{NoHeaders: true}
	got, err := f.FormatReport(sampleReport())
	if err != nil {
		t.Fatalf("FormatReport() error = %v", err)
	}
	if strings.Contains(got, "COMMAND") || strings.Contains(got, "ATTR") {
		t.Errorf("headers present despite NoHeaders:\n%s", got)
	}
}

func TestTableFormatter_NoData(t *testing.T) {
	rep := sampleReport()
	rep.Data = nil
	rep.Status = "in_use"
	rep.Errors = "volume is in use: vg00/data_nightly"

	f := &TableFormatter{}
	got, err := f.FormatReport(rep)
	if err != nil {
		t.Fatalf("FormatReport() error = %v", err)
	}
	if !strings.Contains(got, "in_use") || !strings.Contains(got, "volume is in use") {
		t.Errorf("summary row incomplete:\n%s", got)
	}
}

func TestJSONFormatter(t *testing.T) {
	f := &JSONFormatter{}
	got, err := f.FormatReport(sampleReport())
	if err != nil {
		t.Fatalf("FormatReport() error = %v", err)
	}

	var decoded snapset.Report
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Command != "list" || decoded.Status != "ok" {
		t.Errorf("round trip = %+v", decoded)
	}
	if decoded.Data == nil || len(decoded.Data.Volumes["vg00"]) != 2 {
		t.Errorf("data payload lost in round trip")
	}
}

func TestYAMLFormatter(t *testing.T) {
	f := &YAMLFormatter{}
	got, err := f.FormatReport(sampleReport())
	if err != nil {
		t.Fatalf("FormatReport() error = %v", err)
	}

	var decoded snapset.Report
	if err := yaml.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if decoded.RunID != sampleReport().RunID {
		t.Errorf("run_id lost in round trip: %+v", decoded)
	}
	if !strings.Contains(got, "run_id:") {
		t.Errorf("expected snake_case keys:\n%s", got)
	}
}
