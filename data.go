package stache

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/hashicorp/stache/events"
	"github.com/pkg/errors"
)

// DataResolver turns a data reference into the value handed to the template.
type DataResolver struct {
	cache *RequestCache
	event events.EventHandler
}

// NewDataResolver creates a resolver that fetches remote data through cache.
func NewDataResolver(cache *RequestCache, eh events.EventHandler) *DataResolver {
	if eh == nil {
		eh = func(events.Event) {}
	}
	return &DataResolver{cache: cache, event: eh}
}

// Resolve returns the data for ref. Inline values are returned unchanged.
func (r *DataResolver) Resolve(ctx context.Context, ref Reference) (interface{}, error) {
	switch ref.Kind {
	case RefInline:
		return ref.Inline, nil
	case RefURL:
		return r.fromURL(ctx, ref.Location)
	default:
		return r.fromFile(ref.Location)
	}
}

// fromURL reads JSON or YAML from a remote URL.
func (r *DataResolver) fromURL(ctx context.Context, url string) (interface{}, error) {
	resp, err := r.cache.Fetch(ctx, url)
	if err != nil {
		return nil, downloading(err, "data")
	}

	var data interface{}
	switch classify(url, resp.ContentType) {
	case formatJSON:
		data, err = parseJSON([]byte(resp.Body))
	case formatYAML:
		data, err = parseYAML([]byte(resp.Body))
	default:
		return nil, newError(ErrUnrecognizedFormat, url,
			"the data URL does not look like JSON or YAML")
	}
	if err != nil {
		return nil, newError(ErrUnrecognizedFormat, url, "%w", err)
	}
	return data, nil
}

// fromFile reads JSON or YAML from a file, or loads a JavaScript module.
func (r *DataResolver) fromFile(path string) (interface{}, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json", ".yaml", ".yml":
	case ".js":
		return r.fromModule(path)
	default:
		return nil, newError(ErrUnsupportedDataFile, "",
			"data file must be JSON file, YAML file, or JS module. Given: %s", path)
	}

	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var data interface{}
	if ext == ".json" {
		data, err = parseJSON(b)
	} else {
		data, err = parseYAML(b)
	}
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return data, nil
}

// fromModule loads a JavaScript module and warns when its export does not
// look like data.
func (r *DataResolver) fromModule(path string) (interface{}, error) {
	exported, err := loadModule(path)
	if err != nil {
		return nil, err
	}

	empty := false
	switch t := exported.(type) {
	case map[string]interface{}:
		empty = len(t) == 0
	case []interface{}:
		empty = len(t) == 0
	default:
		r.event(events.DataWarning{
			Path:    path,
			Message: "exported a non-object",
		})
	}
	if empty {
		r.event(events.DataWarning{
			Path: path,
			Message: "does not export anything; " +
				"did you assign to `module.exports`?",
		})
	}
	return exported, nil
}
