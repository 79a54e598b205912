package groups

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLayoutValid(t *testing.T) {
	require.NoError(t, DefaultLayout().Validate())
	assert.Len(t, DefaultLayout().Categories, 6)
}

func TestLoadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	content := `
header: ["Принято", "", "Выдано"]
subheader: ["", "Шт", ""]
categories: ["Принято", "Выдано"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	l, err := LoadLayout(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Принято", "Выдано"}, l.Categories)
	assert.Equal(t, "итого за группировку", l.GroupMarker, "markers keep defaults")
	assert.Equal(t, "ИТОГО", l.TotalsLabel)
}

func TestParseLayoutRejectsMismatch(t *testing.T) {
	_, err := ParseLayout([]byte(`categories: ["a", "b"]`))
	assert.Error(t, err)
}

func TestLoadLayoutMissing(t *testing.T) {
	_, err := LoadLayout("/nonexistent/layout.yaml")
	assert.Error(t, err)
}
