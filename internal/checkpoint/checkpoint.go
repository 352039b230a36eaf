// Package checkpoint locates training snapshots written by the trainer.
//
// The expected layout is:
//
//	<root>/lightning_logs/version_<N>/checkpoints/epoch=<E>-step=<S>.ckpt
//
// N, E and S are non-negative integers of any width and are always
// compared as integers.
package checkpoint

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	logsDirName        = "lightning_logs"
	checkpointsDirName = "checkpoints"
	versionPrefix      = "version_"
)

// ErrNotFound is returned when no version directory or checkpoint file
// matches the expected layout.
var ErrNotFound = errors.New("checkpoint: not found")

var nameRE = regexp.MustCompile(`^epoch=([0-9]+)-step=([0-9]+)`)

// Ref identifies one checkpoint file.
type Ref struct {
	Path    string
	Version int
	Epoch   int
	Step    int
}

func (r Ref) String() string {
	return fmt.Sprintf("version_%d epoch=%d step=%d (%s)", r.Version, r.Epoch, r.Step, r.Path)
}

// ParseName extracts epoch and step from a checkpoint file name. The
// extension is ignored; suffixes after the step (e.g. "-v1") are allowed.
func ParseName(name string) (epoch, step int, ok bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	m := nameRE.FindStringSubmatch(stem)
	if m == nil {
		return 0, 0, false
	}
	epoch, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	step, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return epoch, step, true
}

// parseVersion returns N for a directory named version_<N>.
func parseVersion(name string) (int, bool) {
	digits, ok := strings.CutPrefix(name, versionPrefix)
	if !ok || digits == "" {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FindLast returns the most recent checkpoint under root: the highest
// version directory whose checkpoints directory is non-empty, then the
// highest (epoch, step) file inside it. Files that do not match the
// naming pattern are ignored.
func FindLast(root string) (Ref, error) {
	logsDir := filepath.Join(root, logsDirName)
	if !isDir(logsDir) {
		return Ref{}, fmt.Errorf("%w: no %s directory in %s", ErrNotFound, logsDirName, root)
	}
	entries, err := os.ReadDir(logsDir)
	if err != nil {
		return Ref{}, fmt.Errorf("checkpoint: read %s: %w", logsDir, err)
	}

	version := -1
	for _, e := range entries {
		n, ok := parseVersion(e.Name())
		if !ok || n <= version || !isDir(filepath.Join(logsDir, e.Name())) {
			continue
		}
		if !hasEntries(filepath.Join(logsDir, e.Name(), checkpointsDirName)) {
			continue
		}
		version = n
	}
	if version < 0 {
		return Ref{}, fmt.Errorf("%w: no version directory with checkpoints in %s", ErrNotFound, logsDir)
	}

	ckptDir := filepath.Join(logsDir, versionPrefix+strconv.Itoa(version), checkpointsDirName)
	files, err := os.ReadDir(ckptDir)
	if err != nil {
		return Ref{}, fmt.Errorf("checkpoint: read %s: %w", ckptDir, err)
	}

	best := Ref{Version: version, Epoch: -1, Step: -1}
	bestName := ""
	for _, f := range files {
		epoch, step, ok := ParseName(f.Name())
		if !ok || !isRegular(filepath.Join(ckptDir, f.Name())) {
			continue
		}
		if !newer(epoch, step, best.Epoch, best.Step) {
			// Same snapshot saved twice (epoch=1-step=5-v1.ckpt): keep the
			// shorter, unsuffixed name.
			if epoch == best.Epoch && step == best.Step && len(f.Name()) < len(bestName) {
				bestName = f.Name()
			}
			continue
		}
		best.Epoch, best.Step = epoch, step
		bestName = f.Name()
	}
	if bestName == "" {
		return Ref{}, fmt.Errorf("%w: no epoch=<E>-step=<S> file in %s", ErrNotFound, ckptDir)
	}
	best.Path = filepath.Join(ckptDir, bestName)
	return best, nil
}

// newer orders by epoch, then step.
func newer(epoch, step, bestEpoch, bestStep int) bool {
	if epoch != bestEpoch {
		return epoch > bestEpoch
	}
	return step > bestStep
}

// isDir and isRegular follow symlinks.
func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func isRegular(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func hasEntries(dir string) bool {
	f, err := os.Open(dir)
	if err != nil {
		return false
	}
	defer f.Close()
	names, _ := f.Readdirnames(1)
	return len(names) > 0
}

// Digest returns the hex BLAKE2b-256 digest of the file at path.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("checkpoint: digest: %w", err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("checkpoint: digest: %w", err)
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("checkpoint: digest %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
