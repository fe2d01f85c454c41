package testutil

import (
	"os"
	"path/filepath"
)

// CleanDir removes everything in the directory named by dirname except for any directory
// entries specified by keeps.
func CleanDir(dirname string, keeps []string) error {
	entries, err := os.ReadDir(dirname)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	m := map[string]struct{}{}
	for _, k := range keeps {
		m[k] = struct{}{}
	}

	for _, e := range entries {
		if _, found := m[e.Name()]; found {
			continue
		}
		err = os.RemoveAll(filepath.Join(dirname, e.Name()))
		if err != nil {
			return err
		}
	}
	return nil
}
