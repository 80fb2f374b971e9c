package output

import (
	"bytes"
	"fmt"
	"sort"
	"text/tabwriter"

	units "github.com/docker/go-units"

	"github.com/jbweber/snapset/internal/snapset"
)

// TableFormatter formats reports as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header rows.
	NoHeaders bool
}

// FormatReport formats an operation report. The summary line always
// comes first; the list payload, when present, follows as a volume
// table and a mount table.
func (f *TableFormatter) FormatReport(rep snapset.Report) (string, error) {
	var buf bytes.Buffer

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "COMMAND\tSTATUS\tCHANGED\tMESSAGE")
	}
	msg := rep.Errors
	if msg == "" {
		msg = "-"
	}
	_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", rep.Command, rep.Status, rep.Changed, msg)
	_ = w.Flush()

	if rep.Data != nil {
		buf.WriteString("\n")
		f.writeVolumes(&buf, rep.Data)
		if len(rep.Data.Mounts) > 0 {
			buf.WriteString("\n")
			f.writeMounts(&buf, rep.Data)
		}
	}

	return buf.String(), nil
}

func (f *TableFormatter) writeVolumes(buf *bytes.Buffer, data *snapset.ListData) {
	w := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "VG\tLV\tSIZE\tATTR\tORIGIN\tPOOL")
	}

	for _, vgName := range sortedKeys(data.Volumes) {
		for _, lv := range data.Volumes[vgName] {
			origin := lv.Origin
			if origin == "" {
				origin = "-"
			}
			pool := lv.PoolLV
			if pool == "" {
				pool = "-"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				vgName, lv.Name, units.BytesSize(float64(lv.Size)), lv.Attr, origin, pool)
		}
	}
	_ = w.Flush()
}

func (f *TableFormatter) writeMounts(buf *bytes.Buffer, data *snapset.ListData) {
	w := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "SOURCE\tTARGET\tFSTYPE\tOPTIONS")
	}

	for _, device := range sortedKeys(data.Mounts) {
		for _, m := range data.Mounts[device] {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Source, m.Target, m.FSType, m.Options)
		}
	}
	_ = w.Flush()
}

// sortedKeys gives stable table output regardless of map order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
