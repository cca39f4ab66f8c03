package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonCatalogue = `{"sources": [
  {"name": "VnExpress", "domain": "WWW.VnExpress.net", "primary_rss": "https://vnexpress.net/rss/thoi-su.rss", "trusted": true, "authority_level": 2},
  {"name": "Báo Mới", "domain": "baomoi.com", "primary_rss": null, "trusted": false, "authority_level": 9}
]}`

const yamlCatalogue = `sources:
  - name: Tuổi Trẻ
    domain: tuoitre.vn
    backup_rss: https://tuoitre.vn/rss/tin-moi-nhat.rss
    trusted: true
    authority_level: 2
`

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		file    string
		domains []string
		wantErr string
	}{
		{name: "json", data: jsonCatalogue, file: "sources.json", domains: []string{"vnexpress.net", "baomoi.com"}},
		{name: "yaml", data: yamlCatalogue, file: "sources.yml", domains: []string{"tuoitre.vn"}},
		{name: "missing domain", data: `{"sources":[{"name":"x"}]}`, file: "s.json", wantErr: "domain is required"},
		{name: "duplicate domain", data: `{"sources":[{"name":"a","domain":"a.vn"},{"name":"b","domain":"www.a.vn"}]}`, file: "s.json", wantErr: "duplicate domain"},
		{name: "empty", data: `{"sources":[]}`, file: "s.json", wantErr: "no sources"},
		{name: "unknown field", data: `{"sources":[{"name":"a","domain":"a.vn","rss":"x"}]}`, file: "s.json", wantErr: "unknown field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.data), tt.file)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			var domains []string
			for _, s := range got {
				domains = append(domains, s.Domain)
			}
			assert.Equal(t, tt.domains, domains)
		})
	}
}

func TestParseDefaults(t *testing.T) {
	got, err := Parse([]byte(jsonCatalogue), "sources.json")
	require.NoError(t, err)
	assert.Equal(t, 2, got[0].AuthorityLevel)
	assert.Equal(t, 3, got[1].AuthorityLevel, "out of range level falls back to 3")
	assert.Empty(t, got[1].PrimaryRSS)

	c := Static(got)
	assert.True(t, c.Trusted("vnexpress.net"))
	assert.False(t, c.Trusted("baomoi.com"))
	assert.False(t, c.Trusted("unknown.vn"))
}

func TestShippedCatalogue(t *testing.T) {
	sources, err := Load(filepath.Join("..", "..", "config", "sources.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, sources)
}

func TestReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.json")
	require.NoError(t, os.WriteFile(path, []byte(jsonCatalogue), 0o644))

	c, err := Open(path)
	require.NoError(t, err)
	require.Len(t, c.Sources(), 2)

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	assert.Error(t, c.Reload())
	assert.Len(t, c.Sources(), 2)
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlCatalogue), 0o644))

	c, err := Open(path)
	require.NoError(t, err)
	require.Len(t, c.Sources(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan int, 4)
	require.NoError(t, c.Watch(ctx, 20*time.Millisecond, slog.Default(), func(n int) { reloaded <- n }))

	updated := yamlCatalogue + `  - name: Dân trí
    domain: dantri.com.vn
    trusted: true
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	deadline := time.After(5 * time.Second)
	for n := 0; n != 2; {
		select {
		case n = <-reloaded:
		case <-deadline:
			t.Fatal("catalogue was not reloaded")
		}
	}
	assert.Len(t, c.Sources(), 2)
}
