package testmux

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testmux/testmux/runner"
	"github.com/testmux/testmux/types"
)

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestNewBuildsService(t *testing.T) {
	svc, err := New(&Config{
		GoBinary: "go",
		Log:      log.NewLogger(log.DiscardHandler()),
	})
	require.NoError(t, err)
	require.NotNil(t, svc)

	// Safe before and after the run, and idempotent.
	svc.Cancel()
	svc.Cancel()
}

func TestWriteReportsAllFormats(t *testing.T) {
	dir := t.TempDir()
	svc := &Service{
		cfg: &Config{
			XMLPath:   filepath.Join(dir, "out.xml"),
			XMLV1Path: filepath.Join(dir, "out-v1.xml"),
			HTMLPath:  filepath.Join(dir, "out.html"),
		},
		log: log.NewLogger(log.DiscardHandler()),
	}

	tree := types.NewResultRoot(time.Now())
	tree.Append(&types.AssemblyResult{
		Name:   "app",
		Total:  1,
		Passed: 1,
		Tests:  []*types.CaseResult{{Name: "TestOne", Result: "Pass", Time: "0.010"}},
	})

	require.NoError(t, svc.writeReports(&runner.RunResult{Tree: tree}))
	for _, name := range []string{"out.xml", "out-v1.xml", "out.html"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.NotZero(t, info.Size(), name)
	}
}

func TestWriteReportsSkippedWithoutTree(t *testing.T) {
	svc := &Service{
		cfg: &Config{XMLPath: filepath.Join(t.TempDir(), "never.xml")},
		log: log.NewLogger(log.DiscardHandler()),
	}

	require.NoError(t, svc.writeReports(&runner.RunResult{}))
	_, err := os.Stat(svc.cfg.XMLPath)
	assert.True(t, os.IsNotExist(err))
}
