package skills

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanResources(t *testing.T) {
	t.Run("main file always first even when absent", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/skills/empty", 0o755))

		files := scanResources(fs, "/skills/empty")
		assert.Equal(t, []string{MainFileName}, files)
	})

	t.Run("whitelisted subdirs in fixed order", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/skills/s/SKILL.md", []byte("x"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "/skills/s/assets/c.png", []byte("x"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "/skills/s/references/b.md", []byte("x"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "/skills/s/scripts/a.sql", []byte("x"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "/skills/s/scripts/z.sql", []byte("x"), 0o644))

		files := scanResources(fs, "/skills/s")
		assert.Equal(t, []string{
			MainFileName,
			"scripts/a.sql",
			"scripts/z.sql",
			"references/b.md",
			"assets/c.png",
		}, files)
	})

	t.Run("missing subdirectory contributes nothing", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/skills/s/SKILL.md", []byte("x"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "/skills/s/references/b.md", []byte("x"), 0o644))

		files := scanResources(fs, "/skills/s")
		assert.Equal(t, []string{MainFileName, "references/b.md"}, files)
	})

	t.Run("never descends into nested directories", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/skills/s/SKILL.md", []byte("x"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "/skills/s/scripts/a.sql", []byte("x"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "/skills/s/scripts/nested/deep.sql", []byte("x"), 0o644))

		files := scanResources(fs, "/skills/s")
		assert.Equal(t, []string{MainFileName, "scripts/a.sql"}, files)
	})

	t.Run("non-whitelisted subdirs are ignored", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/skills/s/SKILL.md", []byte("x"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "/skills/s/docs/readme.md", []byte("x"), 0o644))

		files := scanResources(fs, "/skills/s")
		assert.Equal(t, []string{MainFileName}, files)
	})
}
