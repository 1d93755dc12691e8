package stache

import (
	"context"
	"os"
	"reflect"

	"github.com/hashicorp/stache/events"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Session renders templates for one run. It owns the request cache, so every
// render issued through the same Session shares remote fetches.
type Session struct {
	cache     *RequestCache
	data      *DataResolver
	templates *TemplateResolver
	event     events.EventHandler

	directory      string
	extension      string
	createDestDirs bool
	perms          os.FileMode
	backup         BackupFunc
}

// SessionInput is used as input when creating a Session.
type SessionInput struct {
	// Fetcher retrieves remote references. Required only if a reference is a
	// URL; NewSession creates a default HTTPFetcher when nil.
	Fetcher Fetcher

	// Directory is the base directory for partials (default ".").
	Directory string

	// Extension is the file suffix for partials (default ".mustache").
	Extension string

	// CreateDestDirs causes missing parent directories of a destination to
	// be created.
	CreateDestDirs bool

	// Perms sets the mode of written files. Zero keeps the mode of an
	// existing file, or 0644 for a new one.
	Perms os.FileMode

	// Backup, if set, is called with the destination path before an
	// existing file is overwritten.
	Backup BackupFunc

	// EventHandler receives progress events. Optional.
	EventHandler events.EventHandler
}

// NewSession creates a new Session with an empty request cache.
func NewSession(i SessionInput) (*Session, error) {
	eh := i.EventHandler
	if eh == nil {
		eh = func(events.Event) {}
	}

	fetcher := i.Fetcher
	if fetcher == nil {
		f, err := NewHTTPFetcher(FetcherInput{})
		if err != nil {
			return nil, errors.Wrap(err, "session")
		}
		fetcher = f
	}

	cache := NewRequestCache(fetcher, eh)
	return &Session{
		cache:          cache,
		data:           NewDataResolver(cache, eh),
		templates:      NewTemplateResolver(cache),
		event:          eh,
		directory:      i.Directory,
		extension:      i.Extension,
		createDestDirs: i.CreateDestDirs,
		perms:          i.Perms,
		backup:         i.Backup,
	}, nil
}

// Render resolves data and template concurrently, renders the template and
// writes the result to dest. If either reference fails to resolve nothing is
// written. Errors are annotated with dest.
func (s *Session) Render(ctx context.Context, data, template interface{}, dest string) error {
	err := s.render(ctx, data, template, dest)
	if err != nil {
		s.event(events.RenderFailed{Dest: dest, Error: err})
		return errors.WithMessage(err, dest)
	}
	return nil
}

func (s *Session) render(ctx context.Context, data, template interface{}, dest string) error {
	dataRef, err := DataRef(data)
	if err != nil {
		return err
	}
	tmplRef, err := TemplateRef(template)
	if err != nil {
		return err
	}

	var (
		value interface{}
		body  string
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		value, err = s.data.Resolve(ctx, dataRef)
		return err
	})
	g.Go(func() error {
		var err error
		body, err = s.templates.Resolve(ctx, tmplRef)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.event(events.Output{Dest: dest})

	tmpl := NewTemplate(TemplateInput{
		Name:      tmplRef.Location,
		Contents:  body,
		Directory: s.directory,
		Extension: s.extension,
	})
	contents, err := tmpl.Execute(value)
	if err != nil {
		return errors.Wrap(err, tmpl.Name())
	}

	r := NewFileRenderer(FileRendererInput{
		CreateDestDirs: s.createDestDirs,
		Path:           dest,
		Perms:          s.perms,
		Backup:         s.backup,
	})
	result, err := r.Render(contents)
	if err != nil {
		return err
	}

	source := ""
	if dataRef.Kind != RefInline {
		source = dataRef.Location
	}
	keys, isObject := objectKeys(value)
	s.event(events.Rendered{
		Dest:     dest,
		Template: tmpl.Name(),
		Source:   source,
		Object:   isObject,
		Keys:     keys,
		Changed:  result.Changed,
	})
	return nil
}

// objectKeys reports whether v is object data and, if so, how many keys (or
// elements) it has. Non-object data still renders.
func objectKeys(v interface{}) (int, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return 0, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len(), true
	case reflect.Struct:
		return rv.NumField(), true
	}
	return 0, false
}
