package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTables(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)

	assert.Equal(t, []string{"%s.com", "%s.ca", "%senergy.com", "%sresources.com"}, tables.DomainTemplates)
	assert.Equal(t, []string{"/careers", "/careers/", "/en/careers", "/en-ca/careers", "/jobs"}, tables.PathSuffixes)
	assert.NotEmpty(t, tables.Vendors)
	assert.Contains(t, tables.SectorWords, "energy")
	assert.Contains(t, tables.LegalSuffixes, "ltd")
}

func TestTables_Override_CaseInsensitive(t *testing.T) {
	tables := MustDefaultTables()

	u, ok := tables.Override("  SUNCOR Energy ")
	assert.True(t, ok)
	assert.Equal(t, "https://www.suncor.com/en-ca/careers", u)

	_, ok = tables.Override("Unknown Widgets")
	assert.False(t, ok)

	var nilTables *Tables
	_, ok = nilTables.Override("anything")
	assert.False(t, ok)
}

func TestLoadTables_RejectsBadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"domain_templates":["example.com"],"path_suffixes":["/jobs"]}`), 0644))

	_, err := LoadTables(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")
}

func TestLoadTables_EmptyPathUsesEmbedded(t *testing.T) {
	tables, err := LoadTables("")
	require.NoError(t, err)
	assert.NotEmpty(t, tables.PathSuffixes)
}
