package stache

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/hashicorp/stache/events"
	"github.com/hashicorp/stache/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataResolverFiles(t *testing.T) {
	dir := test.WriteFiles(t, t.TempDir(), map[string]string{
		"d.json":      `{"name":"World"}`,
		"d.yaml":      "name: World\n",
		"d.yml":       "name: World\n",
		"upper.JSON":  `{"name":"World"}`,
		"d.js":        `module.exports = { name: "World" };`,
		"exports.js":  `exports.name = "World";`,
		"d.txt":       "name=World",
		"bad.json":    `{"name":`,
		"syntax.js":   `module.exports = {`,
		"computed.js": `module.exports = { name: ["Wor", "ld"].join("") };`,
	})

	world := map[string]interface{}{"name": "World"}
	ok := []string{"d.json", "d.yaml", "d.yml", "upper.JSON", "d.js", "exports.js", "computed.js"}
	for _, name := range ok {
		t.Run(name, func(t *testing.T) {
			var warnings []events.DataWarning
			r := NewDataResolver(nil, func(e events.Event) {
				if w, ok := e.(events.DataWarning); ok {
					warnings = append(warnings, w)
				}
			})
			data, err := r.Resolve(context.Background(),
				Reference{Kind: RefPath, Location: filepath.Join(dir, name)})
			require.NoError(t, err)
			assert.Equal(t, world, data)
			assert.Empty(t, warnings)
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		r := NewDataResolver(nil, nil)
		_, err := r.Resolve(context.Background(),
			Reference{Kind: RefPath, Location: filepath.Join(dir, "d.txt")})
		assert.ErrorIs(t, err, ErrUnsupportedDataFile)
		assert.Contains(t, err.Error(), "d.txt")
	})

	t.Run("missing", func(t *testing.T) {
		r := NewDataResolver(nil, nil)
		_, err := r.Resolve(context.Background(),
			Reference{Kind: RefPath, Location: filepath.Join(dir, "nope.json")})
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("bad_json", func(t *testing.T) {
		r := NewDataResolver(nil, nil)
		_, err := r.Resolve(context.Background(),
			Reference{Kind: RefPath, Location: filepath.Join(dir, "bad.json")})
		assert.Error(t, err)
	})

	t.Run("bad_js", func(t *testing.T) {
		r := NewDataResolver(nil, nil)
		_, err := r.Resolve(context.Background(),
			Reference{Kind: RefPath, Location: filepath.Join(dir, "syntax.js")})
		assert.Error(t, err)
	})
}

func TestDataResolverModuleWarnings(t *testing.T) {
	dir := test.WriteFiles(t, t.TempDir(), map[string]string{
		"empty.js":   `module.exports = {};`,
		"nothing.js": `var x = 1;`,
		"string.js":  `module.exports = "hello";`,
		"array.js":   `module.exports = [1, 2];`,
		"list.js":    `module.exports = [];`,
	})

	cases := []struct {
		file    string
		want    interface{}
		warning string
	}{
		{"empty.js", map[string]interface{}{}, "does not export anything"},
		{"nothing.js", map[string]interface{}{}, "does not export anything"},
		{"string.js", "hello", "exported a non-object"},
		{"array.js", []interface{}{int64(1), int64(2)}, ""},
		{"list.js", []interface{}{}, "does not export anything"},
	}
	for _, tc := range cases {
		t.Run(tc.file, func(t *testing.T) {
			var warnings []events.DataWarning
			r := NewDataResolver(nil, func(e events.Event) {
				if w, ok := e.(events.DataWarning); ok {
					warnings = append(warnings, w)
				}
			})
			path := filepath.Join(dir, tc.file)
			data, err := r.Resolve(context.Background(), Reference{Kind: RefPath, Location: path})
			require.NoError(t, err)
			assert.Equal(t, tc.want, data)

			if tc.warning == "" {
				assert.Empty(t, warnings)
				return
			}
			require.Len(t, warnings, 1)
			assert.Equal(t, path, warnings[0].Path)
			assert.Contains(t, warnings[0].Message, tc.warning)
		})
	}
}

func TestDataResolverURL(t *testing.T) {
	srv := test.NewServer(t, map[string]test.Route{
		"/d.json": {Body: `{"name":"World"}`},
		"/d.yml":  {Body: "name: World\n"},
		"/json":   {ContentType: "application/json", Body: `{"name":"World"}`},
		"/yaml":   {ContentType: "text/yaml", Body: "name: World\n"},
		"/text":   {ContentType: "text/plain", Body: "name: World\n"},
		"/broken": {ContentType: "application/json", Body: `{`},
	})
	f, err := NewHTTPFetcher(FetcherInput{})
	require.NoError(t, err)
	r := NewDataResolver(NewRequestCache(f, nil), nil)

	world := map[string]interface{}{"name": "World"}
	for _, path := range []string{"/d.json", "/d.yml", "/json", "/yaml"} {
		t.Run(path, func(t *testing.T) {
			data, err := r.Resolve(context.Background(),
				Reference{Kind: RefURL, Location: srv.URLFor(path)})
			require.NoError(t, err)
			assert.Equal(t, world, data)
		})
	}

	t.Run("unrecognized", func(t *testing.T) {
		url := srv.URLFor("/text")
		_, err := r.Resolve(context.Background(), Reference{Kind: RefURL, Location: url})
		assert.ErrorIs(t, err, ErrUnrecognizedFormat)
		assert.Equal(t, url, URLOf(err))
	})

	t.Run("broken", func(t *testing.T) {
		url := srv.URLFor("/broken")
		_, err := r.Resolve(context.Background(), Reference{Kind: RefURL, Location: url})
		assert.ErrorIs(t, err, ErrUnrecognizedFormat)
		assert.Equal(t, url, URLOf(err))
		assert.Contains(t, err.Error(), "for "+url)
	})

	t.Run("not_found", func(t *testing.T) {
		url := srv.URLFor("/missing.json")
		_, err := r.Resolve(context.Background(), Reference{Kind: RefURL, Location: url})
		assert.ErrorIs(t, err, ErrTransport)
		assert.Equal(t, url, URLOf(err))
		assert.EqualError(t, err, "got status 404 downloading data for "+url)
	})
}
