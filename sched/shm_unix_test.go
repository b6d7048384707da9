//go:build darwin || freebsd || linux

package sched

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenShared_VisibleAcrossMappings(t *testing.T) {
	path := filepath.Join(t.TempDir(), RegionName)
	p := newProcs(71, 72)

	a := New(Config{Path: path, Slots: 2, PID: 71, CommandLine: "first"}, WithProber(p), WithPinner(p))
	defer a.Close()
	require.NoError(t, a.Init(context.Background()))
	assert.Equal(t, 0, a.CPU())

	b := New(Config{Path: path, Slots: 2, PID: 72, CommandLine: "second"}, WithProber(p), WithPinner(p))
	defer b.Close()
	require.NoError(t, b.Init(context.Background()))
	assert.Equal(t, 1, b.CPU())

	rows, err := a.List()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "second", rows[1].Command)

	b.Finish()
	rows, err = a.List()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestOpenShared_GrowsSmallFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), RegionName)
	small, err := OpenShared(path, 1)
	require.NoError(t, err)
	require.NoError(t, small.Close())

	big, err := OpenShared(path, 4)
	require.NoError(t, err)
	defer big.Close()
	assert.GreaterOrEqual(t, len(big.Bytes()), 4*SlotSize)
}
