package skills

import (
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

// scanResources enumerates the files a skill may serve. The main file
// name always comes first regardless of existence (the manifest load has
// already verified it). Each whitelisted subdirectory contributes its
// direct file entries in listing order; a missing subdirectory
// contributes nothing. The scan never descends into nested directories.
func scanResources(fsys afero.Fs, skillDir string) []string {
	files := []string{MainFileName}

	for _, sub := range resourceDirs {
		entries, err := afero.ReadDir(fsys, filepath.Join(skillDir, sub))
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			files = append(files, path.Join(sub, entry.Name()))
		}
	}

	return files
}
