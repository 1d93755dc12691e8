package stache

import (
	"context"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/stache/events"
)

// TaskEntry is one fully specified render job.
type TaskEntry struct {
	Data     interface{}
	Template interface{}
	Dest     string
}

// FileMapping is one declared source/destination mapping, as produced by the
// host's file expansion.
type FileMapping struct {
	// Src is nil when the mapping declares no source list. A non-nil empty
	// slice means the declared patterns matched nothing.
	Src  []string
	Dest string

	// Data and Template override the defaults for this mapping. Nil (or an
	// empty template string) means unset.
	Data     interface{}
	Template interface{}
}

// Defaults are the task-level data and template references.
type Defaults struct {
	Data     interface{}
	Template interface{}
}

// Expand validates the mappings and turns them into task entries. Mappings
// whose source list matched nothing are skipped. Any invalid mapping fails the
// whole expansion with ErrConfig before anything is rendered.
func Expand(files []FileMapping, defaults Defaults) ([]TaskEntry, error) {
	entries := make([]TaskEntry, 0, len(files))
	for _, f := range files {
		if f.Dest == "" {
			return nil, newError(ErrConfig, "", "dest must be specified as a string")
		}

		data := f.Data
		if data == nil {
			data = defaults.Data
		}
		template := f.Template
		if !isSet(template) {
			template = defaults.Template
		}

		if f.Src == nil {
			if data == nil || !isSet(template) {
				return nil, newError(ErrConfig, "",
					"please specify data and template for each file")
			}
			entries = append(entries, TaskEntry{Data: data, Template: template, Dest: f.Dest})
			continue
		}

		switch {
		case len(f.Src) > 1:
			return nil, newError(ErrConfig, "",
				"encountered multiple inputs for %s: %s (did you enable the "+
					"expand flag and correctly configure ext_dot?)",
				f.Dest, strings.Join(f.Src, ", "))
		case len(f.Src) == 0:
			continue
		case data != nil:
			if isSet(template) {
				return nil, newError(ErrConfig, "",
					"use either data OR template with source files")
			}
			entries = append(entries, TaskEntry{Data: data, Template: f.Src[0], Dest: f.Dest})
		case isSet(template):
			entries = append(entries, TaskEntry{Data: f.Src[0], Template: template, Dest: f.Dest})
		default:
			return nil, newError(ErrConfig, "",
				"data or template must be used with source files")
		}
	}
	return entries, nil
}

// isSet reports whether a template reference was given at all.
func isSet(v interface{}) bool {
	if v == nil {
		return false
	}
	s, ok := v.(string)
	return !ok || s != ""
}

// Batch renders a set of task entries through one Session.
type Batch struct {
	session *Session
	event   events.EventHandler
}

// NewBatch creates a batch driver over the given session.
func NewBatch(s *Session) *Batch {
	return &Batch{session: s, event: s.event}
}

// Run renders every entry concurrently and waits for all of them. A failing
// entry does not stop the others and already written files are left in
// place. The returned error, if any, is a *multierror.Error holding one error
// per failed entry.
func (b *Batch) Run(ctx context.Context, entries []TaskEntry) error {
	if len(entries) == 0 {
		b.event(events.NothingToDo{})
		return nil
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result *multierror.Error
	)
	for _, e := range entries {
		wg.Add(1)
		go func(e TaskEntry) {
			defer wg.Done()
			if err := b.session.Render(ctx, e.Data, e.Template, e.Dest); err != nil {
				mu.Lock()
				result = multierror.Append(result, err)
				mu.Unlock()
			}
		}(e)
	}
	wg.Wait()

	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	b.event(events.BatchComplete{Count: len(entries)})
	return nil
}
