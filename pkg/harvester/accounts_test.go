package harvester

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccounts(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"dankmemes", []string{"dankmemes"}},
		{"dankmemes,memes", []string{"dankmemes", "memes"}},
		{"dankmemes; memes  @fresh\tdank", []string{"dankmemes", "memes", "fresh", "dank"}},
		{"a, a, b", []string{"a", "b"}},
		{" ,; ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAccounts(tt.in))
		})
	}
}

func TestParseAccountsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.txt")
	content := "# daily sources\ndankmemes\nmemes, fresh\n\n@dankmemes\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	accounts, err := ParseAccountsFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"dankmemes", "memes", "fresh"}, accounts)
}

func TestParseAccountsFileMissing(t *testing.T) {
	_, err := ParseAccountsFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
