package stache

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

type format int

const (
	formatUnknown format = iota
	formatJSON
	formatYAML
)

// classify decides how a remote body should be parsed. The URL suffix wins
// over the content type.
func classify(url, contentType string) format {
	switch {
	case strings.HasSuffix(url, ".json"), strings.HasSuffix(url, ".js"):
		return formatJSON
	case strings.HasSuffix(url, ".yaml"), strings.HasSuffix(url, ".yml"):
		return formatYAML
	case strings.Contains(contentType, "json"),
		strings.Contains(contentType, "javascript"):
		return formatJSON
	case strings.Contains(contentType, "yaml"),
		strings.Contains(contentType, "yml"):
		return formatYAML
	}
	return formatUnknown
}

// parseJSON returns a structure for valid JSON
func parseJSON(b []byte) (interface{}, error) {
	var data interface{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, errors.Wrap(err, "parseJSON")
	}
	return data, nil
}

// parseYAML returns a structure for valid YAML, with every map keyed by string
// so that it matches what parseJSON produces.
func parseYAML(b []byte) (interface{}, error) {
	var data interface{}
	if err := yaml.Unmarshal(b, &data); err != nil {
		return nil, errors.Wrap(err, "parseYAML")
	}
	return normalizeYAML(data), nil
}

func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, v := range t {
			m[keyString(k)] = normalizeYAML(v)
		}
		return m
	case []interface{}:
		for i := range t {
			t[i] = normalizeYAML(t[i])
		}
		return t
	}
	return v
}

func keyString(k interface{}) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", k)
}
