// Package config reads stache task files. A task file is TOML with task-level
// [options] and any number of [targets.<name>] sections, each carrying its own
// options and file mappings.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/stache"
	"github.com/hashicorp/stache/internal/expand"
	"github.com/imdario/mergo"
	"github.com/pkg/errors"
)

// DefaultPath is the task file read when no other is given.
const DefaultPath = "stache.toml"

// Config is a decoded task file.
type Config struct {
	Options Options            `toml:"options"`
	Targets map[string]*Target `toml:"targets"`
}

// Target is one named set of file mappings.
type Target struct {
	Options Options `toml:"options"`
	Files   []File  `toml:"files"`
}

// Options are render settings. Target options override task options field by
// field.
type Options struct {
	// Directory is the partial base directory.
	Directory string `toml:"directory"`
	// Extension is the partial file suffix.
	Extension string `toml:"extension"`

	// Data and Template are default references for files that do not set
	// their own. Data may be a string or any inline TOML value.
	Data     interface{} `toml:"data"`
	Template interface{} `toml:"template"`

	CreateDestDirs *bool  `toml:"create_dest_dirs"`
	Backup         *bool  `toml:"backup"`
	Perms          string `toml:"perms"`

	TLS TLS `toml:"tls"`
}

// TLS configures the HTTP client used for remote references.
type TLS struct {
	CACert     string `toml:"ca_cert"`
	CAPath     string `toml:"ca_path"`
	ClientCert string `toml:"client_cert"`
	ClientKey  string `toml:"client_key"`
	ServerName string `toml:"server_name"`
	Insecure   *bool  `toml:"insecure"`
}

// File is one declared file mapping.
type File struct {
	// Src is a glob pattern or a list of them. Absent means the mapping
	// names its data and template directly.
	Src  interface{} `toml:"src"`
	Dest string      `toml:"dest"`

	Expand  bool   `toml:"expand"`
	Cwd     string `toml:"cwd"`
	Ext     string `toml:"ext"`
	ExtDot  string `toml:"ext_dot"`
	Flatten bool   `toml:"flatten"`

	Data     interface{} `toml:"data"`
	Template interface{} `toml:"template"`
}

// FromPath reads and parses the task file at path.
func FromPath(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	return Parse(string(b))
}

// Parse decodes a task file. Unknown keys are an error.
func Parse(contents string) (*Config, error) {
	var c Config
	md, err := toml.Decode(contents, &c)
	if err != nil {
		return nil, configError("%s", err)
	}

	var unknown []string
	for _, k := range md.Undecoded() {
		if inlineValue(k) {
			continue
		}
		unknown = append(unknown, k.String())
	}
	if len(unknown) > 0 {
		return nil, configError("unknown keys: %s", strings.Join(unknown, ", "))
	}

	for name, t := range c.Targets {
		if t == nil {
			c.Targets[name] = &Target{}
		}
	}
	return &c, nil
}

// inlineValue reports whether key lies inside an inline data or template
// value, whose contents are free-form.
func inlineValue(k toml.Key) bool {
	for i := 1; i < len(k); i++ {
		if k[i] != "data" && k[i] != "template" {
			continue
		}
		if k[i-1] == "options" || k[i-1] == "files" {
			return i+1 < len(k)
		}
	}
	return false
}

// TargetNames returns the names of all targets, sorted.
func (c *Config) TargetNames() []string {
	names := make([]string, 0, len(c.Targets))
	for name := range c.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TargetOptions returns the options of the named target merged over the
// task-level options.
func (c *Config) TargetOptions(name string) (Options, error) {
	t, ok := c.Targets[name]
	if !ok {
		return Options{}, configError("no target named %q", name)
	}

	merged := t.Options
	merged.Data, merged.Template = nil, nil
	base := c.Options
	base.Data, base.Template = nil, nil
	if err := mergo.Merge(&merged, base); err != nil {
		return Options{}, errors.Wrap(err, "merge options")
	}

	merged.Data = t.Options.Data
	if merged.Data == nil {
		merged.Data = c.Options.Data
	}
	merged.Template = t.Options.Template
	if merged.Template == nil {
		merged.Template = c.Options.Template
	}
	return merged, nil
}

// FileMappings expands the named target's files into mappings ready for
// stache.Expand.
func (c *Config) FileMappings(name string) ([]stache.FileMapping, error) {
	t, ok := c.Targets[name]
	if !ok {
		return nil, configError("no target named %q", name)
	}

	var mappings []stache.FileMapping
	for _, f := range t.Files {
		src, err := sources(f.Src)
		if err != nil {
			return nil, err
		}
		results, err := expand.Files(expand.Mapping{
			Src:     src,
			Dest:    f.Dest,
			Expand:  f.Expand,
			Cwd:     f.Cwd,
			Ext:     f.Ext,
			ExtDot:  f.ExtDot,
			Flatten: f.Flatten,
		})
		if err != nil {
			return nil, configError("%s", err)
		}
		for _, r := range results {
			mappings = append(mappings, stache.FileMapping{
				Src:      r.Src,
				Dest:     r.Dest,
				Data:     f.Data,
				Template: f.Template,
			})
		}
	}
	return mappings, nil
}

// sources normalizes a src declaration to a list of patterns.
func sources(v interface{}) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{t}, nil
	case []interface{}:
		src := make([]string, 0, len(t))
		for _, p := range t {
			s, ok := p.(string)
			if !ok {
				return nil, configError("encountered incorrect source definition")
			}
			src = append(src, s)
		}
		return src, nil
	}
	return nil, configError("encountered incorrect source definition")
}

// SessionInput converts the options to session settings.
func (o Options) SessionInput() (stache.SessionInput, error) {
	i := stache.SessionInput{
		Directory:      o.Directory,
		Extension:      o.Extension,
		CreateDestDirs: o.CreateDestDirs == nil || *o.CreateDestDirs,
	}
	if o.Backup != nil && *o.Backup {
		i.Backup = stache.Backup
	}
	if o.Perms != "" {
		p, err := strconv.ParseUint(o.Perms, 8, 32)
		if err != nil {
			return i, configError("invalid perms %q", o.Perms)
		}
		i.Perms = os.FileMode(p)
	}
	return i, nil
}

// FetcherInput converts the TLS options to fetcher settings.
func (o Options) FetcherInput() stache.FetcherInput {
	return stache.FetcherInput{
		SSLCert:    o.TLS.ClientCert,
		SSLKey:     o.TLS.ClientKey,
		SSLCACert:  o.TLS.CACert,
		SSLCAPath:  o.TLS.CAPath,
		ServerName: o.TLS.ServerName,
		Insecure:   o.TLS.Insecure != nil && *o.TLS.Insecure,
	}
}

// Defaults returns the task-level data and template references.
func (o Options) Defaults() stache.Defaults {
	return stache.Defaults{Data: o.Data, Template: o.Template}
}

func configError(format string, args ...interface{}) error {
	return errors.WithStack(&stache.Error{
		Kind: stache.ErrConfig,
		Err:  fmt.Errorf(format, args...),
	})
}
