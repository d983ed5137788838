package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReindexCmd_ReloadsSnapshot(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	retrieval := retrievalService.(*mockRetrievalService)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"reindex"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, 1, retrieval.reindexed)
	assert.Contains(t, buf.String(), "Index reloaded.")
}

func TestReindexCmd_PropagatesFailure(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	retrievalService = &mockRetrievalService{reindexErr: errors.New("no index on disk")}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"reindex"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no index on disk")
}
