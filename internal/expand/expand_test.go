package expand

import (
	"path/filepath"
	"testing"

	"github.com/hashicorp/stache/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles(t *testing.T) {
	dir := test.WriteFiles(t, t.TempDir(), map[string]string{
		"de.json":        "{}",
		"es.json":        "{}",
		"skip.json":      "{}",
		"nested/fr.json": "{}",
		"a.b.yaml":       "",
		"page.mustache":  "",
	})
	j := func(p ...string) string { return filepath.Join(append([]string{dir}, p...)...) }

	cases := []struct {
		name     string
		mapping  Mapping
		expected []Result
	}{
		{
			"no_src",
			Mapping{Dest: "out.html"},
			[]Result{{Dest: "out.html"}},
		},
		{
			"single",
			Mapping{Src: []string{"page.mustache"}, Cwd: dir, Dest: "out.html"},
			[]Result{{Src: []string{j("page.mustache")}, Dest: "out.html"}},
		},
		{
			"no_match",
			Mapping{Src: []string{"*.txt"}, Cwd: dir, Dest: "out.html"},
			[]Result{{Src: []string{}, Dest: "out.html"}},
		},
		{
			"many_without_expand",
			Mapping{Src: []string{"*.json"}, Cwd: dir, Dest: "out.html"},
			[]Result{{Src: []string{j("de.json"), j("es.json"), j("skip.json")}, Dest: "out.html"}},
		},
		{
			"absolute_pattern",
			Mapping{Src: []string{j("de.json")}, Dest: "out.html"},
			[]Result{{Src: []string{j("de.json")}, Dest: "out.html"}},
		},
		{
			"expand",
			Mapping{Expand: true, Src: []string{"*.json", "!skip.json"}, Cwd: dir, Dest: "tmp", Ext: ".html"},
			[]Result{
				{Src: []string{j("de.json")}, Dest: filepath.Join("tmp", "de.html")},
				{Src: []string{j("es.json")}, Dest: filepath.Join("tmp", "es.html")},
			},
		},
		{
			"expand_recursive",
			Mapping{Expand: true, Src: []string{"**/*.json", "!*.json"}, Cwd: dir, Dest: "tmp", Ext: ".html"},
			[]Result{
				{Src: []string{j("nested", "fr.json")}, Dest: filepath.Join("tmp", "nested", "fr.html")},
			},
		},
		{
			"expand_flatten",
			Mapping{Expand: true, Src: []string{"nested/*.json"}, Cwd: dir, Dest: "tmp", Flatten: true},
			[]Result{
				{Src: []string{j("nested", "fr.json")}, Dest: filepath.Join("tmp", "fr.json")},
			},
		},
		{
			"expand_no_match",
			Mapping{Expand: true, Src: []string{"*.txt"}, Cwd: dir, Dest: "tmp"},
			[]Result{},
		},
		{
			"ext_dot_first",
			Mapping{Expand: true, Src: []string{"*.yaml"}, Cwd: dir, Dest: "tmp", Ext: ".html"},
			[]Result{{Src: []string{j("a.b.yaml")}, Dest: filepath.Join("tmp", "a.html")}},
		},
		{
			"ext_dot_last",
			Mapping{Expand: true, Src: []string{"*.yaml"}, Cwd: dir, Dest: "tmp", Ext: ".html", ExtDot: ExtDotLast},
			[]Result{{Src: []string{j("a.b.yaml")}, Dest: filepath.Join("tmp", "a.b.html")}},
		},
		{
			"duplicates",
			Mapping{Src: []string{"de.json", "*.json", "!s*"}, Cwd: dir, Dest: "out"},
			[]Result{{Src: []string{j("de.json"), j("es.json")}, Dest: "out"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results, err := Files(tc.mapping)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, results)
		})
	}
}

func TestReplaceExt(t *testing.T) {
	assert.Equal(t, "dir/a.html", replaceExt("dir/a.b.json", ".html", ExtDotFirst))
	assert.Equal(t, "dir/a.b.html", replaceExt("dir/a.b.json", ".html", ExtDotLast))
	assert.Equal(t, "noext.html", replaceExt("noext", ".html", ""))
	assert.Equal(t, "d.x/a.html", replaceExt("d.x/a.json", ".html", ""))
}
