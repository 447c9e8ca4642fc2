package daemon

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	zcommon "github.com/ruteri/zaph/common"
	"github.com/ruteri/zaph/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupervisor_StopWithoutPIDFile(t *testing.T) {
	sup := NewSupervisor(t.TempDir(), zcommon.DiscardLogger())

	_, err := sup.Stop()
	assert.ErrorIs(t, err, ErrNotRunning)

	_, running, err := sup.Running()
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.False(t, running)
}

func TestSupervisor_InvalidPIDFile(t *testing.T) {
	dir := t.TempDir()
	sup := NewSupervisor(dir, zcommon.DiscardLogger())
	require.NoError(t, os.WriteFile(sup.PIDPath(), []byte("garbage\n"), 0644))

	_, err := sup.Stop()
	assert.ErrorIs(t, err, interfaces.ErrConfig)

	_, statErr := os.Stat(sup.PIDPath())
	assert.NoError(t, statErr, "PID file is kept when the daemon could not be stopped")
}

func TestSupervisor_StartStop(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a unix sleep binary")
	}
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep binary not available")
	}

	dir := t.TempDir()
	sup := NewSupervisor(dir, zcommon.DiscardLogger())

	pid, err := sup.Start(sleep, []string{"30"})
	require.NoError(t, err)
	assert.Positive(t, pid)
	assert.Equal(t, filepath.Join(dir, PIDFileName), sup.PIDPath())

	raw, err := os.ReadFile(sup.PIDPath())
	require.NoError(t, err)
	assert.Equal(t, pid, mustAtoi(t, strings.TrimSpace(string(raw))))

	recorded, running, err := sup.Running()
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, pid, recorded)

	_, err = sup.Start(sleep, []string{"30"})
	assert.ErrorIs(t, err, interfaces.ErrConflict)

	stopped, err := sup.Stop()
	require.NoError(t, err)
	assert.Equal(t, pid, stopped)

	_, statErr := os.Stat(sup.PIDPath())
	assert.True(t, os.IsNotExist(statErr))

	_, err = sup.Stop()
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestWithoutDetachFlag(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"daemon", "run", "--interval", "60", "-d"}, []string{"daemon", "run", "--interval", "60"}},
		{[]string{"daemon", "run", "--detached", "--shots", "2"}, []string{"daemon", "run", "--shots", "2"}},
		{[]string{"daemon", "run", "--detached=true", "--data-dir", "x"}, []string{"daemon", "run", "--data-dir", "x"}},
		{[]string{"daemon", "run"}, []string{"daemon", "run"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WithoutDetachFlag(tt.in))
	}
}

func TestShowLogs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LogFileName)

	var out bytes.Buffer
	err := ShowLogs(&out, path, 0)
	assert.ErrorIs(t, err, ErrNoLogs)

	writer := NewLogWriter(path)
	for _, line := range []string{"one", "two", "three", "four"} {
		_, err := writer.Write([]byte(line + "\n"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	out.Reset()
	require.NoError(t, ShowLogs(&out, path, 0))
	assert.Equal(t, "one\ntwo\nthree\nfour\n", out.String())

	out.Reset()
	require.NoError(t, ShowLogs(&out, path, 2))
	assert.Equal(t, "three\nfour\n", out.String())

	out.Reset()
	require.NoError(t, ShowLogs(&out, path, 10))
	assert.Equal(t, "one\ntwo\nthree\nfour\n", out.String())
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}
