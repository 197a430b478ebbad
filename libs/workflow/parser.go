package workflow

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/pinionhq/pinion/libs/action"
)

// usesPattern matches a step's uses: declaration. The first group captures
// everything through the keyword and its trailing spaces so a rewrite can
// reproduce the line's exact leading text. Quote characters are excluded
// from the token, which leaves quoted references alone.
var usesPattern = regexp.MustCompile(`^(\s*(?:-\s*)?uses:\s+)([^\s#'"]+)`)

// UsesLine is one extracted occurrence of an action reference.
type UsesLine struct {
	LineNumber int
	Prefix     string
	Action     action.ActionRef
}

// WorkflowFile is a parsed workflow definition. Content holds the verbatim
// file text; Actions are ordered by line number.
type WorkflowFile struct {
	Path    string
	Content string
	Actions []UsesLine
}

// Parse extracts action references from workflow content. Local actions and
// container image sources are not references to pin and are left out. Lines
// that do not look like a uses: declaration are ignored.
func Parse(path string, content string) *WorkflowFile {
	wf := &WorkflowFile{Path: path, Content: content}

	for i, line := range strings.Split(content, "\n") {
		matches := usesPattern.FindStringSubmatch(line)
		if matches == nil {
			continue
		}

		token := matches[2]
		if strings.HasPrefix(token, "docker://") {
			continue
		}

		ref, err := action.Parse(token)
		if err != nil {
			slog.Debug("skipping malformed action reference",
				"file", path,
				"line", i+1,
				"token", token,
			)
			continue
		}
		if ref.IsLocal() {
			continue
		}

		wf.Actions = append(wf.Actions, UsesLine{
			LineNumber: i + 1,
			Prefix:     matches[1],
			Action:     ref,
		})
	}

	return wf
}

// ParseFile reads and parses a workflow file.
func ParseFile(path string) (*WorkflowFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading workflow file %s: %w", path, err)
	}
	return Parse(path, string(content)), nil
}

// UnpinnedActions returns the occurrences that still point at a mutable ref.
func (w *WorkflowFile) UnpinnedActions() []UsesLine {
	return lo.Filter(w.Actions, func(u UsesLine, _ int) bool {
		return !u.Action.IsSHA
	})
}

// PinnedCount returns how many occurrences are already pinned to a SHA.
func (w *WorkflowFile) PinnedCount() int {
	return lo.CountBy(w.Actions, func(u UsesLine) bool {
		return u.Action.IsSHA
	})
}
