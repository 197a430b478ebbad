package gitref

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
)

// DefaultServerURL is where action repositories live unless the runner
// says otherwise via GITHUB_SERVER_URL.
const DefaultServerURL = "https://github.com"

// RemoteRef is a single reference advertised by a remote repository.
type RemoteRef struct {
	Name string
	SHA  string
}

// RefLister lists the references a repository advertises. Implementations
// must be safe for concurrent use.
type RefLister interface {
	ListRefs(ctx context.Context, repository string) ([]RemoteRef, error)
}

// GitLister lists references over the git transport, equivalent to
// git ls-remote. An empty token lists anonymously, which is enough for
// public action repositories.
type GitLister struct {
	ServerURL string
	Token     string
}

func NewGitLister(serverURL string, token string) *GitLister {
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	return &GitLister{ServerURL: serverURL, Token: token}
}

func (l *GitLister) ListRefs(ctx context.Context, repository string) ([]RemoteRef, error) {
	repoURL, err := RepositoryURL(l.ServerURL, repository)
	if err != nil {
		return nil, err
	}

	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{repoURL},
	})

	listOptions := git.ListOptions{}
	if l.Token != "" {
		listOptions.Auth = &http.BasicAuth{
			Username: "x-access-token", // anything except an empty string
			Password: l.Token,
		}
	}

	refs, err := remote.ListContext(ctx, &listOptions)
	if err != nil {
		return nil, fmt.Errorf("error listing refs for %s: %w", repository, err)
	}

	// Symbolic refs carry a target name instead of a hash. Materialize them
	// so a literal HEAD reference resolves to the same SHA ls-remote shows.
	hashByName := make(map[string]string, len(refs))
	for _, ref := range refs {
		if ref.Type() == plumbing.HashReference {
			hashByName[ref.Name().String()] = ref.Hash().String()
		}
	}

	remoteRefs := make([]RemoteRef, 0, len(refs))
	for _, ref := range refs {
		switch ref.Type() {
		case plumbing.HashReference:
			remoteRefs = append(remoteRefs, RemoteRef{Name: ref.Name().String(), SHA: ref.Hash().String()})
		case plumbing.SymbolicReference:
			if sha, ok := hashByName[ref.Target().String()]; ok {
				remoteRefs = append(remoteRefs, RemoteRef{Name: ref.Name().String(), SHA: sha})
			}
		}
	}

	slog.Debug("listed remote refs", "repository", repository, "count", len(remoteRefs))
	return remoteRefs, nil
}

// SplitRepository returns the owner and name of the git repository behind an
// action repository path. Anything after the first two segments addresses a
// subdirectory inside the repository, not a different repository.
func SplitRepository(repository string) (string, string, error) {
	parts := strings.Split(strings.Trim(repository, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q must include owner and name", ErrInvalidRepository, repository)
	}
	return parts[0], parts[1], nil
}

// RepositoryURL derives the clone URL for an action repository.
func RepositoryURL(serverURL string, repository string) (string, error) {
	owner, name, err := SplitRepository(repository)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(serverURL, "/") + "/" + owner + "/" + name + ".git", nil
}
