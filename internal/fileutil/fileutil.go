package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File is one destination written by WriteFilesAtomic.
type File struct {
	Path string
	Data []byte
	Mode os.FileMode
}

// WriteFilesAtomic writes every file to a temp sibling first and renames the
// temps into place only after all of them were written and synced. When any
// step fails, temps are removed along with destinations this call already
// renamed, so a failed call leaves no new files behind.
func WriteFilesAtomic(files []File) (err error) {
	temps := make([]string, 0, len(files))
	var renamed []string
	defer func() {
		if err == nil {
			return
		}
		for _, tmp := range temps {
			_ = os.Remove(tmp)
		}
		for _, dst := range renamed {
			_ = os.Remove(dst)
		}
	}()

	for _, f := range files {
		tmp, werr := writeTemp(f)
		if werr != nil {
			return werr
		}
		temps = append(temps, tmp)
	}

	for i, f := range files {
		if rerr := os.Rename(temps[i], f.Path); rerr != nil {
			return fmt.Errorf("rename %s: %w", f.Path, rerr)
		}
		renamed = append(renamed, f.Path)
	}
	temps = nil
	return nil
}

func writeTemp(f File) (string, error) {
	if f.Path == "" {
		return "", errors.New("destination path required")
	}
	mode := f.Mode
	if mode == 0 {
		mode = 0o644
	}
	dir := filepath.Dir(f.Path)
	out, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", f.Path, err)
	}
	name := out.Name()
	cleanup := func(cause error) (string, error) {
		_ = out.Close()
		_ = os.Remove(name)
		return "", cause
	}
	if _, err := out.Write(f.Data); err != nil {
		return cleanup(fmt.Errorf("write %s: %w", f.Path, err))
	}
	if err := out.Sync(); err != nil {
		return cleanup(fmt.Errorf("sync %s: %w", f.Path, err))
	}
	if err := out.Chmod(mode); err != nil {
		return cleanup(fmt.Errorf("chmod %s: %w", f.Path, err))
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close %s: %w", f.Path, err)
	}
	return name, nil
}

// HashFile returns the hex SHA-256 digest of the file at path.
func HashFile(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, in); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
