package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"object-designer-client/internal/core/domain"
	"object-designer-client/internal/testutil"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRun_WritesArtifact(t *testing.T) {
	remote := testutil.NewFakeRemote(t)
	remote.Configure(func(f *testutil.FakeRemote) { f.PendingPolls = 2 })
	outPath := filepath.Join(t.TempDir(), "vase.glb")

	out, err := runCLI(t, "run",
		"--base-url", remote.URL(),
		"--request-timeout", "5s",
		"--long-poll-ms", "50",
		"--poll-interval", "1ms",
		"--log-level", "error",
		"--name", "vase",
		"--description", "an antique vase",
		"--model", "m1",
		"--out", outPath,
	)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("GLB..."), data)
	assert.Contains(t, out, "task id:      t1")
	assert.Contains(t, out, "content-type: model/gltf-binary")
	assert.Contains(t, out, "bytes:        6")
	assert.Len(t, remote.Requests(testutil.RoutePoll), 3)
	assert.Len(t, remote.Requests(testutil.RoutePublish), 1)
}

func TestRun_ReportsGenerationFailure(t *testing.T) {
	remote := testutil.NewFakeRemote(t)
	remote.Configure(func(f *testutil.FakeRemote) {
		f.FinalStatus = "failed"
		f.FailureReason = "boom"
	})

	_, err := runCLI(t, "run",
		"--base-url", remote.URL(),
		"--request-timeout", "5s",
		"--long-poll-ms", "50",
		"--poll-interval", "1ms",
		"--log-level", "error",
		"--name", "vase",
		"--model", "m1",
	)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.EqualError(t, err, "boom")
}

func TestRun_RequiresName(t *testing.T) {
	_, err := runCLI(t, "run", "--model", "m1")
	assert.Error(t, err)
}

func TestRun_RejectsBadConfig(t *testing.T) {
	_, err := runCLI(t, "run", "--name", "vase", "--model", "m1", "--base-url", "not a url")
	assert.ErrorContains(t, err, "load config")
}
