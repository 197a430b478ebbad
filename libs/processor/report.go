package processor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RenderText formats the run summary the way the CLI prints it.
func RenderText(results *ProcessResults) string {
	var b strings.Builder

	b.WriteString("Results:\n")
	fmt.Fprintf(&b, "  Files processed: %d\n", results.FilesProcessed)
	fmt.Fprintf(&b, "  Actions found:   %d\n", results.ActionsFound)
	fmt.Fprintf(&b, "  Actions pinned:  %d\n", results.ActionsPinned)
	fmt.Fprintf(&b, "  Already pinned:  %d\n", results.AlreadyPinned)
	fmt.Fprintf(&b, "  Errors:          %d\n", results.Errors)

	if len(results.PinnedActions) > 0 {
		b.WriteString("\nPinned actions:\n")
		for _, record := range results.PinnedActions {
			fmt.Fprintf(&b, "  %s: %s %s -> %s\n", record.File, record.Action, record.OldRef, shortSHA(record.SHA))
		}
	}

	if results.DryRun {
		b.WriteString("\nDry run: no files were modified.\n")
	} else if results.ActionsPinned == 0 && results.Errors == 0 && results.ActionsFound > 0 {
		b.WriteString("\nAll action references are already pinned.\n")
	}

	return b.String()
}

// RenderJSON renders the summary as an indented JSON document.
func RenderJSON(results *ProcessResults) (string, error) {
	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error marshalling results: %w", err)
	}
	return string(out), nil
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
