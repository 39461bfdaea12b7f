package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "bornk "+version+"\n", out)
}

func TestTrainCommand_Synthetic(t *testing.T) {
	out, logs, err := execute(t, "train", "--epochs", "20", "--log-every", "5", "--seed", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "epochs=20")
	assert.Contains(t, out, "accuracy=")
	assert.Contains(t, logs, "dataset loaded")
	assert.Equal(t, 4, strings.Count(logs, "msg=epoch"))
	assert.NotContains(t, logs, "msg=batch")
}

func TestTrainCommand_VerboseLogsBatches(t *testing.T) {
	_, logs, err := execute(t, "train", "--epochs", "1", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, logs, "msg=batch")
	assert.Contains(t, logs, "arena_bytes=")
}

func TestTrainCommand_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iris.csv")
	require.NoError(t, os.WriteFile(path, []byte(irisSample), 0o600))

	out, _, err := execute(t, "train", "--data", path, "--batch", "2", "--epochs", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Iris-setosa")
}

func TestTrainCommand_InvalidFlags(t *testing.T) {
	_, _, err := execute(t, "train", "--epochs", "0")
	assert.Error(t, err)

	_, _, err = execute(t, "train", "--lr", "-1")
	assert.Error(t, err)

	_, _, err = execute(t, "train", "--batch", "1000")
	assert.Error(t, err)
}

func TestRunTrain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := runTrain(ctx, defaultTrainConfig(), logger)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunTrain_Defaults(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	res, err := runTrain(context.Background(), defaultTrainConfig(), logger)
	require.NoError(t, err)

	assert.Equal(t, 100, res.Epochs)
	assert.Greater(t, res.Accuracy, float32(0.9))
	assert.Len(t, res.Classes, 3)
}

func TestTrainCommand_Predictions(t *testing.T) {
	out, _, err := execute(t, "train", "--epochs", "20", "--predictions", "3")
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(out, "sample="))
	assert.Contains(t, out, "sample=0 predicted=blob-")
	assert.Contains(t, out, "actual=blob-0")
	assert.Contains(t, out, "actual=blob-1")
	assert.Contains(t, out, "actual=blob-2")

	out, _, err = execute(t, "train", "--epochs", "1")
	require.NoError(t, err)
	assert.NotContains(t, out, "sample=")

	_, _, err = execute(t, "train", "--predictions", "-1")
	assert.Error(t, err)
}
