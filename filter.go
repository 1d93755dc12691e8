package stache

import (
	"strings"

	bexpr "github.com/hashicorp/go-bexpr"
	"github.com/pkg/errors"
)

// inlineLabel stands in for non-string references in filter expressions.
const inlineLabel = "<inline>"

// FilterEntries keeps the entries that match a boolean expression. The
// selectors available are dest, template and data, e.g.
//
//	dest matches "^tmp/batch/" and data != "<inline>"
//
// An empty expression keeps every entry.
func FilterEntries(entries []TaskEntry, expr string) ([]TaskEntry, error) {
	if strings.TrimSpace(expr) == "" {
		return entries, nil
	}

	eval, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, newError(ErrConfig, "", "invalid filter %q: %s", expr, err)
	}

	kept := make([]TaskEntry, 0, len(entries))
	for _, e := range entries {
		ok, err := eval.Evaluate(filterView(e))
		if err != nil {
			return nil, errors.Wrapf(err, "filter %s", e.Dest)
		}
		if ok {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

func filterView(e TaskEntry) map[string]string {
	return map[string]string{
		"dest":     e.Dest,
		"template": refLabel(e.Template),
		"data":     refLabel(e.Data),
	}
}

func refLabel(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return inlineLabel
}
