package undo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkalnins/shelf/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_CheckOrder(t *testing.T) {
	dir := t.TempDir()
	v := &Validator{VolumeRoots: []string{filepath.Join(dir, "vols")}}

	// Everything wrong at once: target gone AND source occupied AND volume
	// unreachable. Target existence is checked first.
	op := &models.Operation{
		SourcePath: filepath.Join(dir, "vols", "usb", "x.txt"),
		TargetPath: filepath.Join(dir, "nowhere", "x.txt"),
	}
	cf := v.Check(op)
	require.NotNil(t, cf)
	assert.Equal(t, models.TargetMissing, cf.Kind)
}

func TestValidator_AllPass(t *testing.T) {
	dir := t.TempDir()
	v := &Validator{VolumeRoots: []string{filepath.Join(dir, "vols")}}

	target := filepath.Join(dir, "b", "x.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	op := &models.Operation{
		SourcePath: filepath.Join(dir, "a", "x.txt"),
		TargetPath: target,
		Timestamp:  time.Now(),
	}
	assert.Nil(t, v.Check(op))
}

func TestValidator_SourceOccupied(t *testing.T) {
	dir := t.TempDir()
	v := NewValidator()

	source := filepath.Join(dir, "a", "x.txt")
	target := filepath.Join(dir, "b", "x.txt")
	for _, p := range []string{source, target} {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}

	cf := v.Check(&models.Operation{SourcePath: source, TargetPath: target})
	require.NotNil(t, cf)
	assert.Equal(t, models.SourceOccupied, cf.Kind)
}

func TestValidator_VolumeReachable(t *testing.T) {
	dir := t.TempDir()
	v := &Validator{VolumeRoots: []string{filepath.Join(dir, "vols")}}

	// Volume mounted: both paths live on it and the target exists.
	target := filepath.Join(dir, "vols", "usb", "b", "x.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	op := &models.Operation{
		SourcePath: filepath.Join(dir, "vols", "usb", "a", "x.txt"),
		TargetPath: target,
	}
	assert.Nil(t, v.Check(op))
}

func TestValidator_VolumeFor(t *testing.T) {
	v := &Validator{VolumeRoots: []string{"/Volumes", "/mnt"}}

	assert.Equal(t, "/Volumes/USB", v.volumeFor("/Volumes/USB/docs/a.txt"))
	assert.Equal(t, "/mnt/backup", v.volumeFor("/mnt/backup/a.txt"))
	assert.Equal(t, "", v.volumeFor("/home/user/a.txt"))
	assert.Equal(t, "", v.volumeFor("/Volumes"))
}
