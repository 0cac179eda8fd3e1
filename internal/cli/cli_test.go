package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/concord/internal/config"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `templates:
  - id: nda
    label: Mutual NDA
    groups:
      - id: term
        label: Term
        variants:
          - id: 1y
          - id: 2y
      - id: liability
        label: Limitation of Liability
        variants:
          - id: X
          - id: Y
          - id: Z
`

const resolvedYAML = `submissions:
  - template_id: nda
    group_id: term
    party: a
    ranking: [2y, 1y]
  - template_id: nda
    group_id: term
    party: b
    ranking: [2y]
    rejected: [1y]
  - template_id: nda
    group_id: liability
    party: a
    ranking: [X, Y, Z]
  - template_id: nda
    group_id: liability
    party: b
    ranks: {Y: 1, X: 2, Z: 3}
`

// writeFixture writes content to name inside dir and returns the path.
func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fileCatalog(t *testing.T) (config.CatalogConfig, string) {
	t.Helper()
	dir := t.TempDir()
	return config.CatalogConfig{Source: "file", Path: writeFixture(t, dir, "catalog.yaml", catalogYAML)}, dir
}
