package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, []string{"base", "fakenews", "gambling", "porn", "social"}, c.Names())

	base, ok := c.Lookup(BaseName)
	require.True(t, ok)
	assert.True(t, base.IsBase())
	assert.Equal(t, "base.txt", base.FileName())
	assert.Equal(t, "https://raw.githubusercontent.com/StevenBlack/hosts/master/hosts", base.URL)

	_, ok = c.Lookup("nope")
	assert.False(t, ok)
}

func TestCatalogValidate(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		wantErr string
	}{
		{name: "empty", catalog: Catalog{}, wantErr: "no sources"},
		{
			name:    "missing base",
			catalog: Catalog{{Name: "social", URL: "https://example.com/social"}},
			wantErr: "exactly one",
		},
		{
			name: "duplicate",
			catalog: Catalog{
				{Name: "base", URL: "https://example.com/a"},
				{Name: "base", URL: "https://example.com/b"},
			},
			wantErr: "duplicate",
		},
		{
			name:    "unsafe name",
			catalog: Catalog{{Name: "../base", URL: "https://example.com/a"}},
			wantErr: "plain file name",
		},
		{
			name:    "bad url",
			catalog: Catalog{{Name: "base", URL: "ftp://example.com/a"}},
			wantErr: "unsupported URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	content := `sources:
  - name: base
    url: https://example.com/hosts
    description: Base list
  - name: trackers
    url: https://example.com/trackers
    description: Tracking domains
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "trackers"}, c.Names())
	assert.Equal(t, "Tracking domains", c[1].Description)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("sources: [\n"), 0o644))
	_, err = LoadFile(bad)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
