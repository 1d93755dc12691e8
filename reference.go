package stache

import (
	"fmt"
	"regexp"
)

var urlRe = regexp.MustCompile(`^https?:`)

// RefKind identifies where a reference's content comes from.
type RefKind int

const (
	// RefInline is a value that is used as-is.
	RefInline RefKind = iota
	// RefPath is a local file path.
	RefPath
	// RefURL is an http or https URL.
	RefURL
)

func (k RefKind) String() string {
	switch k {
	case RefInline:
		return "inline"
	case RefPath:
		return "path"
	case RefURL:
		return "url"
	}
	return fmt.Sprintf("RefKind(%d)", int(k))
}

// Reference is a classified data or template reference. Classification is
// decided once, by DataRef or TemplateRef, and carried down to the resolvers.
type Reference struct {
	Kind RefKind

	// Inline holds the value of a RefInline reference.
	Inline interface{}

	// Location holds the path or URL of a RefPath or RefURL reference.
	Location string
}

// DataRef classifies a data reference. Nil is rejected; non-strings and the
// empty string are inline.
func DataRef(v interface{}) (Reference, error) {
	if v == nil {
		return Reference{}, newError(ErrInvalidInput, "",
			"data must be defined and not null")
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return Reference{Kind: RefInline, Inline: v}, nil
	}
	return locationRef(s), nil
}

// TemplateRef classifies a template reference, which must be a non-empty
// string.
func TemplateRef(v interface{}) (Reference, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return Reference{}, newError(ErrInvalidInput, "",
			"template path or URL must be given as a string")
	}
	return locationRef(s), nil
}

func locationRef(s string) Reference {
	if urlRe.MatchString(s) {
		return Reference{Kind: RefURL, Location: s}
	}
	return Reference{Kind: RefPath, Location: s}
}

// String describes where the reference points, for logging.
func (r Reference) String() string {
	if r.Kind == RefInline {
		return "inline data"
	}
	return r.Location
}
