package gitref

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pinionhq/pinion/libs/action"
)

func TestBatchResolveAllSucceed(t *testing.T) {
	resolver, _ := newTestResolver()
	refs := []action.ActionRef{
		mustParse(t, "actions/checkout@v4"),
		mustParse(t, "actions/checkout@main"),
	}

	outcomes := resolver.BatchResolve(context.Background(), refs, 4)

	assert.Len(t, outcomes, 2)
	assert.NoError(t, outcomes["actions/checkout@v4"].Err)
	assert.Equal(t, tagSHA, outcomes["actions/checkout@v4"].SHA)
	assert.NoError(t, outcomes["actions/checkout@main"].Err)
	assert.Equal(t, headSHA, outcomes["actions/checkout@main"].SHA)
}

func TestBatchResolvePartialFailureKeepsOtherOutcomes(t *testing.T) {
	resolver, lister := newTestResolver()
	lister.ErrByRepository["someorg/broken"] = errors.New("connection refused")

	refs := []action.ActionRef{
		mustParse(t, "actions/checkout@v4"),
		mustParse(t, "someorg/broken@v1"),
	}

	outcomes := resolver.BatchResolve(context.Background(), refs, 4)

	assert.Len(t, outcomes, 2)
	assert.NoError(t, outcomes["actions/checkout@v4"].Err)
	assert.Equal(t, tagSHA, outcomes["actions/checkout@v4"].SHA)
	assert.Error(t, outcomes["someorg/broken@v1"].Err)
	assert.Empty(t, outcomes["someorg/broken@v1"].SHA)
}

func TestBatchResolveNotFoundIsPerReference(t *testing.T) {
	resolver, _ := newTestResolver()

	refs := []action.ActionRef{
		mustParse(t, "actions/checkout@v4"),
		mustParse(t, "actions/checkout@does-not-exist"),
	}

	outcomes := resolver.BatchResolve(context.Background(), refs, 4)

	assert.NoError(t, outcomes["actions/checkout@v4"].Err)
	assert.ErrorIs(t, outcomes["actions/checkout@does-not-exist"].Err, ErrRefNotFound)
}

func TestBatchResolveRespectsConcurrencyBound(t *testing.T) {
	var lock sync.Mutex
	current, peak := 0, 0
	gate := listerFunc(func(ctx context.Context, repository string) ([]RemoteRef, error) {
		lock.Lock()
		current++
		if current > peak {
			peak = current
		}
		lock.Unlock()

		time.Sleep(10 * time.Millisecond)

		lock.Lock()
		current--
		lock.Unlock()
		return []RemoteRef{{Name: "refs/tags/v1", SHA: tagSHA}}, nil
	})

	resolver := NewResolver(gate)
	var refs []action.ActionRef
	for i := 0; i < 6; i++ {
		refs = append(refs, mustParse(t, fmt.Sprintf("someorg/repo%d@v1", i)))
	}

	outcomes := resolver.BatchResolve(context.Background(), refs, 2)

	assert.Len(t, outcomes, 6)
	for _, ref := range refs {
		assert.NoError(t, outcomes[ref.String()].Err)
		assert.Equal(t, tagSHA, outcomes[ref.String()].SHA)
	}
	assert.LessOrEqual(t, peak, 2)
	assert.Greater(t, peak, 0)
}

func TestBatchResolveSecondRunHitsCache(t *testing.T) {
	resolver, lister := newTestResolver()
	refs := []action.ActionRef{mustParse(t, "actions/checkout@v4")}

	first := resolver.BatchResolve(context.Background(), refs, 2)
	second := resolver.BatchResolve(context.Background(), refs, 2)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, lister.Calls("actions/checkout"))
}

func TestBatchResolveEmptyInput(t *testing.T) {
	resolver, _ := newTestResolver()

	outcomes := resolver.BatchResolve(context.Background(), nil, 2)
	assert.Empty(t, outcomes)
}
