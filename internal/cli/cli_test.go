package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lazypower/scrapbook/internal/media"
	"github.com/lazypower/scrapbook/internal/store"
	"github.com/lazypower/scrapbook/internal/view"
)

const importDoc = `[
  {"id": "m-1", "title": "First Coffee Together", "date": "2024-02-18", "photos": ["https://img/a.jpg"]},
  {"id": "m-2", "title": "Boardwalk Sunset", "date": "2024-04-07", "photos": [{"s3Key": "I_love_Jadyn/1-b.jpg"}]},
  {"id": "bad", "title": "", "date": "someday", "photos": []}
]`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestImportIntoJSONStore(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.json")
	dst := filepath.Join(dir, "data", "memories.json")
	require.NoError(t, os.WriteFile(src, []byte(importDoc), 0o644))

	t.Setenv("SCRAPBOOK_STORE", "json")
	t.Setenv("SCRAPBOOK_DATA", dst)

	out := execute(t, "import", src)
	assert.Contains(t, out, "Imported 2 memories into json")
	assert.Contains(t, out, "skipped 1")

	f, err := store.OpenFile(dst, zap.NewNop())
	require.NoError(t, err)
	got, err := f.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "I_love_Jadyn/1-b.jpg", got[1].Photos[0].Key)

	out = execute(t, "import", src)
	assert.Contains(t, out, "Imported 0 memories")
	assert.Contains(t, out, "skipped 3")
}

func TestVersion(t *testing.T) {
	out := execute(t, "version")
	assert.True(t, strings.HasPrefix(out, "scrapbook dev"))
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirm(strings.NewReader("y\n"), &out, "? "))
	assert.True(t, confirm(strings.NewReader(" YES \n"), &out, "? "))
	assert.False(t, confirm(strings.NewReader("\n"), &out, "? "))
	assert.False(t, confirm(strings.NewReader(""), &out, "? "))
	assert.Equal(t, "? ? ? ? ", out.String())
}

func TestStoreOptionsSQLiteDefaultPath(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)
	cfg.Store.Backend = store.BackendSQLite
	assert.Empty(t, storeOptions(cfg, nil, nil).Path)

	cfg.Store.Path = "/tmp/x.db"
	assert.Equal(t, "/tmp/x.db", storeOptions(cfg, nil, nil).Path)
}

func TestBrowseResolvesWithPublicBaseURL(t *testing.T) {
	t.Setenv("SCRAPBOOK_PUBLIC_BASE_URL", "")
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Nil(t, browseOptions(cfg).Resolver)

	cfg.Media.PublicBaseURL = "https://cdn.example.com/"
	o := browseOptions(cfg)
	require.NotNil(t, o.Resolver)
	items := media.Normalize(context.Background(),
		[]media.Ref{media.StorageKey(media.KindImage, "I_love_Jadyn/1-a.jpg", "")}, o.Resolver)
	require.Len(t, items, 1)
	assert.Equal(t, "https://cdn.example.com/I_love_Jadyn/1-a.jpg", items[0].URL)
	assert.Equal(t, view.Grid, o.Mode)
}
