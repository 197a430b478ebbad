package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pinionhq/pinion/libs/action"
)

const checkoutSHA = "b4ffde65f46336ab88eb53be808477a3936bae11"

func resolvedFor(wf *WorkflowFile, shaByRepo map[string]string) map[string]action.PinnedAction {
	resolved := map[string]action.PinnedAction{}
	for _, occ := range wf.UnpinnedActions() {
		if sha, ok := shaByRepo[occ.Action.Repository]; ok {
			resolved[occ.Action.String()] = action.NewPinnedAction(occ.Action, sha)
		}
	}
	return resolved
}

func TestRewritePinsResolvedAction(t *testing.T) {
	content := "steps:\n  - uses: actions/checkout@v4\n"
	wf := Parse("ci.yml", content)

	out, records := Rewrite(wf, resolvedFor(wf, map[string]string{"actions/checkout": checkoutSHA}))

	assert.Equal(t, "steps:\n  - uses: actions/checkout@"+checkoutSHA+" # v4\n", out)
	assert.Len(t, records, 1)
	assert.Equal(t, "ci.yml", records[0].File)
	assert.Equal(t, "actions/checkout", records[0].Action)
	assert.Equal(t, "v4", records[0].OldRef)
	assert.Equal(t, checkoutSHA, records[0].SHA)
}

func TestRewriteKeepsUnresolvedActionVerbatim(t *testing.T) {
	content := "steps:\n  - uses: actions/checkout@v4\n  - uses: someorg/broken@v1\n"
	wf := Parse("ci.yml", content)

	out, records := Rewrite(wf, resolvedFor(wf, map[string]string{"actions/checkout": checkoutSHA}))

	assert.Contains(t, out, "actions/checkout@"+checkoutSHA+" # v4")
	assert.Contains(t, out, "  - uses: someorg/broken@v1\n")
	assert.Len(t, records, 1)
}

func TestRewriteKeepsAlreadyPinnedLines(t *testing.T) {
	content := "steps:\n  - uses: actions/checkout@" + checkoutSHA + " # v4\n"
	wf := Parse("ci.yml", content)

	out, records := Rewrite(wf, resolvedFor(wf, map[string]string{"actions/checkout": checkoutSHA}))

	assert.Equal(t, content, out)
	assert.Empty(t, records)
}

func TestRewriteWithEmptyResolutionIsIdentity(t *testing.T) {
	content := "name: CI\nsteps:\n  - uses: actions/checkout@v4\n"
	wf := Parse("ci.yml", content)

	out, records := Rewrite(wf, nil)

	assert.Equal(t, content, out)
	assert.Empty(t, records)
}

func TestRewritePreservesIndentationAndListMarker(t *testing.T) {
	content := "jobs:\n  build:\n    steps:\n      -   uses:   actions/checkout@v4\n"
	wf := Parse("ci.yml", content)

	out, _ := Rewrite(wf, resolvedFor(wf, map[string]string{"actions/checkout": checkoutSHA}))

	assert.Contains(t, out, "      -   uses:   actions/checkout@"+checkoutSHA+" # v4\n")
}

func TestRewriteDropsHandwrittenTrailingComment(t *testing.T) {
	content := "  - uses: actions/checkout@v4 # keep me\n"
	wf := Parse("ci.yml", content)

	out, _ := Rewrite(wf, resolvedFor(wf, map[string]string{"actions/checkout": checkoutSHA}))

	assert.Equal(t, "  - uses: actions/checkout@"+checkoutSHA+" # v4\n", out)
}

func TestRewritePreservesMissingTrailingNewline(t *testing.T) {
	content := "  - uses: actions/checkout@v4"
	wf := Parse("ci.yml", content)

	out, _ := Rewrite(wf, resolvedFor(wf, map[string]string{"actions/checkout": checkoutSHA}))

	assert.Equal(t, "  - uses: actions/checkout@"+checkoutSHA+" # v4", out)
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestRewritePreservesCRLF(t *testing.T) {
	content := "steps:\r\n  - uses: actions/checkout@v4\r\n"
	wf := Parse("ci.yml", content)

	out, _ := Rewrite(wf, resolvedFor(wf, map[string]string{"actions/checkout": checkoutSHA}))

	assert.Equal(t, "steps:\r\n  - uses: actions/checkout@"+checkoutSHA+" # v4\r\n", out)
}

func TestRewriteRecordsInLineOrder(t *testing.T) {
	content := "  - uses: actions/setup-go@v5\n  - uses: actions/checkout@v4\n"
	wf := Parse("ci.yml", content)

	_, records := Rewrite(wf, resolvedFor(wf, map[string]string{
		"actions/checkout": checkoutSHA,
		"actions/setup-go": "0123456789abcdef0123456789abcdef01234567",
	}))

	assert.Len(t, records, 2)
	assert.Equal(t, "actions/setup-go", records[0].Action)
	assert.Equal(t, "actions/checkout", records[1].Action)
}

func TestRewriteSameRefTwiceInOneFile(t *testing.T) {
	content := "  - uses: actions/checkout@v4\n  - uses: actions/checkout@v4\n"
	wf := Parse("ci.yml", content)

	out, records := Rewrite(wf, resolvedFor(wf, map[string]string{"actions/checkout": checkoutSHA}))

	assert.Equal(t, 2, strings.Count(out, checkoutSHA))
	assert.Len(t, records, 2)
}
