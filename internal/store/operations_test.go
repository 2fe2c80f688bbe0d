package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledgerd/internal/model"
)

func TestSubmitOperation_InsertOrFetch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, inserted, err := s.SubmitOperation(ctx, testOperation("cid-1", "transfer", "hash-a"))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, "cid-1", first.CorrelationID)
	assert.Equal(t, model.StatusInProgress, first.Status)

	second, inserted, err := s.SubmitOperation(ctx, testOperation("cid-2", "transfer", "hash-a"))
	require.NoError(t, err)
	assert.False(t, inserted, "identical inputs collapse to one row")
	assert.Equal(t, "cid-1", second.CorrelationID, "the loser sees the winner's row")
}

func TestSubmitOperation_ConcurrentSingleWinner(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	results := make(chan bool, n)
	cids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			op, inserted, err := s.SubmitOperation(ctx, testOperation(fmt.Sprintf("cid-%d", i), "hold", "same"))
			assert.NoError(t, err)
			results <- inserted
			cids <- op.CorrelationID
		}(i)
	}
	wg.Wait()
	close(results)
	close(cids)

	winners := 0
	for inserted := range results {
		if inserted {
			winners++
		}
	}
	assert.Equal(t, 1, winners)

	seen := make(map[string]bool)
	for cid := range cids {
		seen[cid] = true
	}
	assert.Len(t, seen, 1, "every submitter observes the same correlation id")
}

func TestCompleteOperation_OneWay(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, _, err := s.SubmitOperation(ctx, testOperation("cid-1", "issue", "h1"))
	require.NoError(t, err)

	updated, err := s.CompleteOperation(ctx, "cid-1", model.StatusFailed, `{"code":1002,"message":"no"}`)
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = s.CompleteOperation(ctx, "cid-1", model.StatusSucceeded, `{}`)
	require.NoError(t, err)
	assert.False(t, updated, "terminal rows are immutable")

	op, err := s.Operation(ctx, "cid-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, op.Status)
	assert.Equal(t, `{"code":1002,"message":"no"}`, op.Outputs)
	assert.True(t, op.UpdatedAt.After(op.CreatedAt))

	_, err = s.CompleteOperation(ctx, "cid-1", model.StatusInProgress, "")
	assert.Error(t, err)
}

func TestMarkOperationPending(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, _, err := s.SubmitOperation(ctx, testOperation("cid-1", "issue", "h1"))
	require.NoError(t, err)
	require.NoError(t, s.MarkOperationPending(ctx, "cid-1", "ext-7"))

	op, err := s.OperationByAsyncRef(ctx, "ext-7")
	require.NoError(t, err)
	assert.Equal(t, "cid-1", op.CorrelationID)
	assert.Equal(t, model.StatusInProgress, op.Status)

	_, err = s.OperationByAsyncRef(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInProgressOperations_FiltersByMethodAndStatus(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i, m := range []string{"issue", "transfer", "issue", "issue"} {
		_, _, err := s.SubmitOperation(ctx, testOperation(fmt.Sprintf("cid-%d", i), m, fmt.Sprintf("h%d", i)))
		require.NoError(t, err)
	}
	_, err := s.CompleteOperation(ctx, "cid-2", model.StatusSucceeded, `{}`)
	require.NoError(t, err)

	ops, err := s.InProgressOperations(ctx, "issue")
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "cid-0", ops[0].CorrelationID)
	assert.Equal(t, "cid-3", ops[1].CorrelationID)

	_, err = s.Operation(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
