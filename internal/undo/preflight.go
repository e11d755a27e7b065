// Package undo implements the compensating-action engine for the shelf
// operation log: pre-flight validation, single-record revert, and the
// LIFO batch revert scheduler.
package undo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkalnins/shelf/internal/models"
)

// DefaultVolumeRoots are the mount-point directories under which a path
// is considered to live on a removable or external volume.
var DefaultVolumeRoots = []string{"/Volumes", "/mnt", "/media", "/run/media"}

// CheckFailure describes why a record cannot be reverted right now.
type CheckFailure struct {
	Kind    models.FailureKind
	Message string
}

// Validator runs the stateless pre-flight checks that must pass before
// any revert file-operation. It is read-only and safe to call repeatedly.
type Validator struct {
	VolumeRoots []string
}

// NewValidator returns a Validator using the default volume roots.
func NewValidator() *Validator {
	return &Validator{VolumeRoots: DefaultVolumeRoots}
}

// Check validates that op can be reverted. The checks run in order and
// short-circuit on the first failure:
//  1. the file must still exist at the target path,
//  2. the source path must not be occupied,
//  3. the volumes holding both paths must be reachable.
//
// Returns nil when all checks pass.
func (v *Validator) Check(op *models.Operation) *CheckFailure {
	if _, err := os.Stat(op.TargetPath); err != nil {
		return &CheckFailure{
			Kind:    models.TargetMissing,
			Message: fmt.Sprintf("file no longer at its destination: %s", op.TargetPath),
		}
	}

	if _, err := os.Stat(op.SourcePath); err == nil {
		return &CheckFailure{
			Kind:    models.SourceOccupied,
			Message: fmt.Sprintf("a file already exists at the original location: %s", op.SourcePath),
		}
	}

	for _, path := range []string{op.SourcePath, op.TargetPath} {
		vol := v.volumeFor(path)
		if vol == "" {
			continue
		}
		if _, err := os.Stat(vol); err != nil {
			return &CheckFailure{
				Kind:    models.VolumeUnreachable,
				Message: fmt.Sprintf("volume not reachable: %s", vol),
			}
		}
	}

	return nil
}

// volumeFor returns the mount point of the volume holding path, or ""
// when the path is not under any configured volume root.
func (v *Validator) volumeFor(path string) string {
	for _, root := range v.VolumeRoots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		name, _, _ := strings.Cut(rel, string(filepath.Separator))
		if name != "" {
			return filepath.Join(root, name)
		}
	}
	return ""
}
