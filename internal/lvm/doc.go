// Package lvm wraps the LVM command-line tools behind a narrow client.
//
// All inventory queries go through the JSON report output of lvm(8) and
// lvs(8); mutations shell out to lvcreate, lvextend, lvconvert and
// lvremove. The package never retries a command and never interprets a
// non-zero exit code beyond the reserved "not found" code: absence of a
// volume is an ordinary boolean result, every other failure is surfaced
// as a typed error for the caller to classify.
package lvm
