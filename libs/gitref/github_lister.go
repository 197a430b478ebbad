package gitref

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v61/github"
)

// GithubLister lists references through the GitHub REST API instead of the
// git transport. Selected with "resolver: api" in the config file; useful
// when the git port is blocked or API rate limits are better authenticated.
type GithubLister struct {
	Client *github.Client
}

func NewGithubLister(serverURL string, token string) (*GithubLister, error) {
	client := github.NewClient(nil)

	if serverURL != "" && serverURL != DefaultServerURL {
		var err error
		client, err = client.WithEnterpriseURLs(serverURL, serverURL)
		if err != nil {
			return nil, fmt.Errorf("error configuring github client for %s: %w", serverURL, err)
		}
	}
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &GithubLister{Client: client}, nil
}

func (l *GithubLister) ListRefs(ctx context.Context, repository string) ([]RemoteRef, error) {
	owner, name, err := SplitRepository(repository)
	if err != nil {
		return nil, err
	}

	opts := &github.ReferenceListOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var remoteRefs []RemoteRef
	for {
		refs, resp, err := l.Client.Git.ListMatchingRefs(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("error listing refs for %s: %w", repository, err)
		}

		for _, ref := range refs {
			if ref.Ref == nil || ref.Object == nil || ref.Object.SHA == nil {
				continue
			}
			remoteRefs = append(remoteRefs, RemoteRef{Name: *ref.Ref, SHA: *ref.Object.SHA})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	slog.Debug("listed remote refs", "repository", repository, "count", len(remoteRefs))
	return remoteRefs, nil
}
