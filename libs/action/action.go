package action

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrInvalidFormat = errors.New("invalid action reference, expected <owner>/<repo>[@<ref>]")

// DefaultRef is assumed when a reference omits the @<ref> part.
const DefaultRef = "main"

var (
	// refPattern splits an action token into repository and optional ref.
	// The repository runs to the first '@'; the ref runs to the first
	// whitespace or '#', so trailing comments are ignored.
	refPattern = regexp.MustCompile(`^([^@\s#]+)(?:@([^\s#]+))?`)

	shaPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)
)

// ActionRef is a single action reference as it appears after the uses:
// keyword, e.g. "actions/checkout@v4". IsSHA is derived from Ref and marks
// references that are already immutable.
type ActionRef struct {
	Repository string `json:"repository"`
	Ref        string `json:"ref"`
	IsSHA      bool   `json:"is_sha"`
}

// Parse builds an ActionRef from a reference token. A token without a ref,
// like "actions/checkout", gets DefaultRef.
func Parse(s string) (ActionRef, error) {
	matches := refPattern.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return ActionRef{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	ref := matches[2]
	if ref == "" {
		ref = DefaultRef
	}

	return ActionRef{
		Repository: matches[1],
		Ref:        ref,
		IsSHA:      shaPattern.MatchString(ref),
	}, nil
}

// String returns the canonical "repository@ref" form. It doubles as the
// cache and dedup key, so it is case-sensitive.
func (a ActionRef) String() string {
	return a.Repository + "@" + a.Ref
}

// IsLocal reports whether the reference points at an action inside the
// repository itself. Local actions are never pinned.
func (a ActionRef) IsLocal() bool {
	return strings.HasPrefix(a.Repository, "./")
}

// PinnedAction pairs a resolved reference with its commit SHA. OriginalRef
// keeps the mutable ref for the audit comment in the rewritten line.
type PinnedAction struct {
	Action      ActionRef `json:"action"`
	SHA         string    `json:"sha"`
	OriginalRef string    `json:"original_ref"`
}

func NewPinnedAction(ref ActionRef, sha string) PinnedAction {
	return PinnedAction{
		Action:      ref,
		SHA:         sha,
		OriginalRef: ref.Ref,
	}
}

// UsesLine renders the pinned reference with the original ref as a trailing
// comment, e.g. "actions/checkout@<sha> # v4".
func (p PinnedAction) UsesLine() string {
	return fmt.Sprintf("%s@%s # %s", p.Action.Repository, p.SHA, p.OriginalRef)
}
