package gitref

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pinionhq/pinion/libs/action"
)

var (
	ErrRefNotFound       = errors.New("reference not found in remote repository")
	ErrInvalidRepository = errors.New("invalid repository")
)

// DefaultTimeout bounds a single remote listing.
const DefaultTimeout = 30 * time.Second

// Resolver turns mutable references into commit SHAs. Successful lookups
// are cached for the lifetime of the resolver, so within one run a cache
// hit is authoritative and never re-checked. Failures are not cached and
// get retried on the next call.
type Resolver struct {
	lister  RefLister
	timeout time.Duration
	cache   sync.Map // canonical "repository@ref" -> SHA
}

func NewResolver(lister RefLister) *Resolver {
	return &Resolver{lister: lister, timeout: DefaultTimeout}
}

func NewResolverWithTimeout(lister RefLister, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{lister: lister, timeout: timeout}
}

// ResolveSHA returns the commit SHA the reference points at. A reference
// that already is a SHA resolves to itself without touching the network.
func (r *Resolver) ResolveSHA(ctx context.Context, ref action.ActionRef) (string, error) {
	if ref.IsSHA {
		return ref.Ref, nil
	}

	key := ref.String()
	if sha, ok := r.cache.Load(key); ok {
		slog.Debug("resolution cache hit", "action", key, "sha", sha)
		return sha.(string), nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	refs, err := r.lister.ListRefs(lookupCtx, ref.Repository)
	if err != nil {
		return "", err
	}

	sha, err := matchRef(refs, ref)
	if err != nil {
		return "", err
	}

	actual, _ := r.cache.LoadOrStore(key, sha)
	return actual.(string), nil
}

// matchRef picks the advertised reference for ref. Tags shadow branches with
// the same name, matching how actions resolve versions. A suffix match is a
// last resort for unusual ref layouts and is logged, since it is a guess.
func matchRef(refs []RemoteRef, ref action.ActionRef) (string, error) {
	candidates := []string{
		"refs/tags/" + ref.Ref,
		"refs/heads/" + ref.Ref,
		ref.Ref,
	}
	for _, candidate := range candidates {
		for _, remoteRef := range refs {
			if remoteRef.Name == candidate {
				slog.Debug("resolved reference",
					"action", ref.String(),
					"ref", remoteRef.Name,
					"sha", remoteRef.SHA,
				)
				return remoteRef.SHA, nil
			}
		}
	}

	for _, remoteRef := range refs {
		if strings.HasSuffix(remoteRef.Name, ref.Ref) {
			slog.Warn("no exact match for reference, using suffix match",
				"action", ref.String(),
				"ref", remoteRef.Name,
				"sha", remoteRef.SHA,
			)
			return remoteRef.SHA, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrRefNotFound, ref.String())
}
