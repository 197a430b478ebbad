package workflow

import (
	"strings"

	"github.com/pinionhq/pinion/libs/action"
)

// PinRecord is one substitution made by Rewrite, kept for the run summary.
type PinRecord struct {
	File   string `json:"file"`
	Action string `json:"action"`
	OldRef string `json:"old_ref"`
	SHA    string `json:"sha"`
}

// Rewrite replaces every unpinned occurrence whose canonical key appears in
// resolved with its pinned form. All other lines, including occurrences that
// could not be resolved, are kept byte for byte, so line endings and the
// presence of a trailing newline survive the rewrite. Records come back in
// line order.
func Rewrite(wf *WorkflowFile, resolved map[string]action.PinnedAction) (string, []PinRecord) {
	if len(wf.Actions) == 0 || len(resolved) == 0 {
		return wf.Content, nil
	}

	occurrences := make(map[int]UsesLine, len(wf.Actions))
	for _, occ := range wf.Actions {
		occurrences[occ.LineNumber] = occ
	}

	lines := strings.Split(wf.Content, "\n")
	var records []PinRecord

	for i := range lines {
		occ, ok := occurrences[i+1]
		if !ok || occ.Action.IsSHA {
			continue
		}
		pinned, ok := resolved[occ.Action.String()]
		if !ok {
			continue
		}

		eol := ""
		if strings.HasSuffix(lines[i], "\r") {
			eol = "\r"
		}
		lines[i] = occ.Prefix + pinned.UsesLine() + eol

		records = append(records, PinRecord{
			File:   wf.Path,
			Action: occ.Action.Repository,
			OldRef: occ.Action.Ref,
			SHA:    pinned.SHA,
		})
	}

	return strings.Join(lines, "\n"), records
}
