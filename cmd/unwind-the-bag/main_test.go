package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/colorfulnotion/securethebag/bagerrors"
	"github.com/nsf/jsondiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	genesisHex = "0x1111111111111111111111111111111111111111111111111111111111111111"
	tailHex    = "0x2222222222222222222222222222222222222222222222222222222222222222"
	targetA    = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	targetB    = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func writeTargets(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.csv")
	require.NoError(t, os.WriteFile(path, []byte(targetA+",100\n"+targetB+",50\n"), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBuildCommand(t *testing.T) {
	path := writeTargets(t)
	out, err := run(t, "build", "-g", genesisHex, "-t", tailHex, "-p", path)
	require.NoError(t, err)
	assert.Contains(t, out, "root puzzle hash: 0xd227a4e3416f62bb5dc43cf01365bc6cae6d6dbfa4697d8c7d1458602a6cdd04")
	assert.Contains(t, out, "root outer hash:  0xf4c4048c2d7ad2080340ecea40f9df4f2ea3904eb90e95e92cc0fd99b0f6177b")
	assert.Contains(t, out, "root coin id:     0x6295bc5eba1dd600f901f5ab7ce4f180b6ceb7fc06a1b93aad72bd0048d7f991")
	assert.Contains(t, out, "total amount:     150")
	assert.Contains(t, out, "depth:            2")

	// A cached lookup gives the same answer.
	db := filepath.Join(t.TempDir(), "lookups")
	first, err := run(t, "build", "-g", genesisHex, "-t", tailHex, "-p", path, "--lookup-db", db)
	require.NoError(t, err)
	second, err := run(t, "build", "-g", genesisHex, "-t", tailHex, "-p", path, "--lookup-db", db)
	require.NoError(t, err)
	assert.Equal(t, out, first)
	assert.Equal(t, first, second)
}

func TestUnwindDryRunJSON(t *testing.T) {
	path := writeTargets(t)
	out, err := run(t, "unwind", "-g", genesisHex, "-t", tailHex, "-p", path,
		"-u", targetA, "-u", targetB, "--dry-run", "--json")
	require.NoError(t, err)

	want := `[
		{
			"target": "` + targetA + `",
			"state": "ReachedGenesis",
			"plan": ["` + genesisHex + `", "0x6295bc5eba1dd600f901f5ab7ce4f180b6ceb7fc06a1b93aad72bd0048d7f991"],
			"anchor": "0x0000000000000000000000000000000000000000000000000000000000000000",
			"spent_coin": "0x0000000000000000000000000000000000000000000000000000000000000000",
			"hops": 2
		},
		{
			"target": "` + targetB + `",
			"state": "ReachedGenesis",
			"plan": ["` + genesisHex + `", "0x6295bc5eba1dd600f901f5ab7ce4f180b6ceb7fc06a1b93aad72bd0048d7f991"],
			"anchor": "0x0000000000000000000000000000000000000000000000000000000000000000",
			"spent_coin": "0x0000000000000000000000000000000000000000000000000000000000000000",
			"hops": 2
		}
	]`
	opts := jsondiff.DefaultConsoleOptions()
	diff, desc := jsondiff.Compare([]byte(want), []byte(out), &opts)
	assert.Equal(t, jsondiff.FullMatch, diff, desc)
}

func TestUnwindDryRunText(t *testing.T) {
	path := writeTargets(t)
	out, err := run(t, "unwind", "-g", genesisHex, "-t", tailHex, "-p", path, "-u", targetA, "--dry-run")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "target "+targetA+": ReachedGenesis", lines[0])
	assert.Equal(t, genesisHex, lines[1])
	assert.Equal(t, "0x6295bc5eba1dd600f901f5ab7ce4f180b6ceb7fc06a1b93aad72bd0048d7f991", lines[2])
}

func TestUnwindErrors(t *testing.T) {
	path := writeTargets(t)
	_, err := run(t, "unwind", "-g", genesisHex, "-t", tailHex, "-p", path,
		"-u", "0xcccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc", "--dry-run")
	assert.True(t, errors.Is(err, bagerrors.ErrUnknownNode))

	_, err = run(t, "unwind", "-g", "0x1234", "-t", tailHex, "-p", path, "-u", targetA, "--dry-run")
	assert.Error(t, err)

	_, err = run(t, "unwind", "-g", genesisHex, "-t", tailHex, "-p", path, "--dry-run")
	assert.Error(t, err)

	// Without --dry-run the node configuration must exist.
	_, err = run(t, "unwind", "-g", genesisHex, "-t", tailHex, "-p", path, "-u", targetA, "--chia-root", t.TempDir())
	assert.True(t, errors.Is(err, bagerrors.ErrNodeConfig))
}

func TestTreeCommand(t *testing.T) {
	path := writeTargets(t)
	out, err := run(t, "tree", "-g", genesisHex, "-t", tailHex, "-p", path)
	require.NoError(t, err)
	assert.Contains(t, out, "genesis 1111..1111 (width 100, 2 targets, depth 2)")
	assert.Contains(t, out, "aaaa..aaaa amount=100")
	assert.Contains(t, out, "bbbb..bbbb amount=50")
}

func TestTracesFlushedOnError(t *testing.T) {
	var exports atomic.Int32
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exports.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	path := writeTargets(t)
	_, err := run(t, "unwind", "-g", genesisHex, "-t", tailHex, "-p", path,
		"-u", "0xcccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc", "--dry-run",
		"--otlp-endpoint", collector.URL+"/v1/traces")
	require.True(t, errors.Is(err, bagerrors.ErrUnknownNode))
	// The failed walk's span reached the collector before the command returned.
	assert.Positive(t, exports.Load())
}
