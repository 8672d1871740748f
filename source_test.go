package unspool_test

import (
	"context"
	"testing"

	"github.com/fwojciec/unspool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamState_ZeroValue(t *testing.T) {
	t.Parallel()
	var s unspool.StreamState
	assert.Equal(t, unspool.StreamStateNew, s, "zero-value StreamState should be StreamStateNew")
}

func TestRequest_Validate(t *testing.T) {
	t.Parallel()

	t.Run("accepts prompt with history", func(t *testing.T) {
		t.Parallel()
		r := unspool.Request{
			Prompt: "and then?",
			History: []unspool.Turn{
				{Role: unspool.RoleUser, Text: "hi"},
				{Role: unspool.RoleAssistant, Text: "hello"},
			},
		}
		assert.NoError(t, r.Validate())
	})

	t.Run("rejects blank prompt", func(t *testing.T) {
		t.Parallel()
		err := unspool.Request{Prompt: "  \n"}.Validate()
		assert.ErrorIs(t, err, unspool.ErrValidation)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		t.Parallel()
		r := unspool.Request{
			Prompt:  "x",
			History: []unspool.Turn{{Role: "system", Text: "y"}},
		}
		err := r.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, unspool.ErrValidation)
		assert.Contains(t, err.Error(), "history[0]")
	})
}

func TestSourceFunc(t *testing.T) {
	t.Parallel()
	var got unspool.Request
	src := unspool.SourceFunc(func(_ context.Context, req unspool.Request) (unspool.Stream, error) {
		got = req
		return nil, nil
	})
	_, err := src.Stream(context.Background(), unspool.Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "p", got.Prompt)
}
