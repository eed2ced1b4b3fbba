package watchlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWalletFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallets.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegistry(t *testing.T) {
	t.Run("Load And Lookup", func(t *testing.T) {
		path := writeWalletFile(t, `[
			{"address": "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", "name": "whale", "emoji": "🐳"},
			{"address": "GDfnEsia2WLAW5t8yx2X5j2mkfA74i5kwGdDuZHt7XmG", "name": "sniper"}
		]`)

		r, err := NewRegistry(path)
		require.NoError(t, err)
		assert.Len(t, r.Snapshot(), 2)

		w, ok := r.Lookup("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
		require.True(t, ok)
		assert.Equal(t, "whale", w.Name)
		assert.Equal(t, "🐳 whale", w.DisplayName())

		_, ok = r.Lookup("unknown")
		assert.False(t, ok)
	})

	t.Run("Missing Name Defaults To Short Address", func(t *testing.T) {
		path := writeWalletFile(t, `[{"address": "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"}]`)

		r, err := NewRegistry(path)
		require.NoError(t, err)
		assert.Equal(t, "9WzD..AWWM", r.Snapshot()[0].Name)
	})

	t.Run("Empty Address Entries Are Skipped", func(t *testing.T) {
		path := writeWalletFile(t, `[
			{"address": "", "name": "ghost"},
			{"address": "GDfnEsia2WLAW5t8yx2X5j2mkfA74i5kwGdDuZHt7XmG", "name": "real"}
		]`)

		r, err := NewRegistry(path)
		require.NoError(t, err)
		require.Len(t, r.Snapshot(), 1)
		assert.Equal(t, "real", r.Snapshot()[0].Name)
	})

	t.Run("Missing File Fails Startup", func(t *testing.T) {
		_, err := NewRegistry(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("Bad Reload Keeps Previous Set", func(t *testing.T) {
		path := writeWalletFile(t, `[{"address": "GDfnEsia2WLAW5t8yx2X5j2mkfA74i5kwGdDuZHt7XmG", "name": "real"}]`)

		r, err := NewRegistry(path)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
		assert.Error(t, r.Reload())
		assert.Len(t, r.Snapshot(), 1, "previous set survives a bad edit")
	})

	t.Run("Reload Picks Up Additions", func(t *testing.T) {
		path := writeWalletFile(t, `[{"address": "GDfnEsia2WLAW5t8yx2X5j2mkfA74i5kwGdDuZHt7XmG", "name": "real"}]`)

		r, err := NewRegistry(path)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(path, []byte(`[
			{"address": "GDfnEsia2WLAW5t8yx2X5j2mkfA74i5kwGdDuZHt7XmG", "name": "real"},
			{"address": "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", "name": "added"}
		]`), 0o644))
		require.NoError(t, r.Reload())
		assert.Equal(t, []string{
			"GDfnEsia2WLAW5t8yx2X5j2mkfA74i5kwGdDuZHt7XmG",
			"9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		}, r.Addresses())
	})
}
