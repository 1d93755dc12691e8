package stache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io/ioutil"

	"github.com/cbroglie/mustache"
	"github.com/pkg/errors"
)

const (
	// DefaultDirectory is the base directory searched for partials.
	DefaultDirectory = "."

	// DefaultExtension is the file extension of partial templates.
	DefaultExtension = ".mustache"
)

// Template is the internal representation of an individual mustache template.
// The template retains the relationship between its contents and the
// partials lookup and is responsible for its own execution.
type Template struct {
	// template name, appended to ID if given
	name string

	// contents is the raw mustache text.
	contents string

	// directory and extension drive partial lookup: a partial named "foo"
	// resolves to directory/foo+extension.
	directory string
	extension string

	// hexMD5 stores the hex version of the MD5
	hexMD5 string
}

// TemplateInput is used as input when creating the template.
type TemplateInput struct {
	// Optional name for the template, usually where it was loaded from.
	Name string

	// Contents are the raw template contents.
	Contents string

	// Directory is the base directory for partials (default ".").
	Directory string

	// Extension is the file suffix for partials (default ".mustache").
	Extension string
}

// NewTemplate creates a new Template.
func NewTemplate(i TemplateInput) *Template {
	t := Template{
		name:      i.Name,
		contents:  i.Contents,
		directory: i.Directory,
		extension: i.Extension,
	}
	if t.directory == "" {
		t.directory = DefaultDirectory
	}
	if t.extension == "" {
		t.extension = DefaultExtension
	}

	// Compute the MD5, encode as hex
	hash := md5.Sum([]byte(t.contents))
	t.hexMD5 = hex.EncodeToString(hash[:])

	return &t
}

// ID returns the identifier for this template.
func (t *Template) ID() string {
	if t.name != "" {
		return t.hexMD5 + "_" + t.name
	}
	return t.hexMD5
}

// Name returns the name given at creation.
func (t *Template) Name() string {
	return t.name
}

// Execute renders the template with data. Partials are read from disk on each
// call and are not cached.
func (t *Template) Execute(data interface{}) ([]byte, error) {
	partials := &mustache.FileProvider{
		Paths:      []string{t.directory},
		Extensions: []string{t.extension},
	}

	tmpl, err := mustache.ParseStringPartials(t.contents, partials)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	out, err := tmpl.Render(data)
	if err != nil {
		return nil, errors.Wrap(err, "execute")
	}
	return []byte(out), nil
}

// TemplateResolver retrieves raw template text for a reference.
type TemplateResolver struct {
	cache *RequestCache
}

// NewTemplateResolver creates a resolver that fetches remote templates
// through cache.
func NewTemplateResolver(cache *RequestCache) *TemplateResolver {
	return &TemplateResolver{cache: cache}
}

// Resolve returns the template text for ref. Local read errors are returned
// unchanged.
func (r *TemplateResolver) Resolve(ctx context.Context, ref Reference) (string, error) {
	switch ref.Kind {
	case RefURL:
		resp, err := r.cache.Fetch(ctx, ref.Location)
		if err != nil {
			return "", downloading(err, "template")
		}
		return resp.Body, nil
	case RefPath:
		b, err := ioutil.ReadFile(ref.Location)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return "", newError(ErrInvalidInput, "",
		"template path or URL must be given as a string")
}
