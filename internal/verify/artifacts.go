package verify

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// assetsDir is the hashed-asset subdirectory Vite writes below the static dir.
const assetsDir = "assets"

// CheckArtifacts reports whether a build left usable output under
// root/staticDir. The static directory must exist and be a directory. If an
// assets subdirectory exists it must contain at least one regular file.
//
// On failure it returns the offending path relative to root.
func CheckArtifacts(root, staticDir string) (string, error) {
	static := filepath.Join(root, filepath.FromSlash(staticDir))
	info, err := os.Stat(static)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return staticDir, fmt.Errorf("static directory %s was not produced", staticDir)
	case err != nil:
		return staticDir, err
	case !info.IsDir():
		return staticDir, fmt.Errorf("%s is not a directory", staticDir)
	}

	assetsRel := path.Join(staticDir, assetsDir)
	assets := filepath.Join(static, assetsDir)
	info, err = os.Stat(assets)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case err != nil:
		return assetsRel, err
	case !info.IsDir():
		return assetsRel, fmt.Errorf("%s is not a directory", assetsRel)
	}

	found := false
	err = filepath.WalkDir(assets, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return assetsRel, err
	}
	if !found {
		return assetsRel, fmt.Errorf("%s is empty", assetsRel)
	}
	return "", nil
}
