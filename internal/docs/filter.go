package docs

import (
	"fmt"
	"regexp"
	"strings"
)

// FilterSpecError reports a malformed filter configuration.
type FilterSpecError struct {
	Spec any
	Err  error
}

func (e *FilterSpecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid filter %v: %v", e.Spec, e.Err)
	}
	return fmt.Sprintf("expected true, false or a non-empty list of strings as filters, not %#v", e.Spec)
}

func (e *FilterSpecError) Unwrap() error { return e.Err }

type filterMode int

const (
	filterAll filterMode = iota
	filterNone
	filterPatterns
)

// FilterSpec selects members of a child group. The zero value keeps everything.
type FilterSpec struct {
	mode     filterMode
	patterns []filterPattern
}

type filterPattern struct {
	source  string
	include bool
	re      *regexp.Regexp
}

// KeepAll and DropAll are the two boolean filter specifications.
var (
	KeepAll = FilterSpec{mode: filterAll}
	DropAll = FilterSpec{mode: filterNone}
)

// ParseFilterSpec accepts true, false, or a non-empty list of regular
// expressions, each optionally prefixed with "!" to exclude on match.
func ParseFilterSpec(v any) (FilterSpec, error) {
	switch v := v.(type) {
	case nil:
		return KeepAll, nil
	case FilterSpec:
		return v, nil
	case bool:
		if v {
			return KeepAll, nil
		}
		return DropAll, nil
	case []string:
		return NewFilterSpec(v...)
	case []any:
		patterns := make([]string, len(v))
		for i, p := range v {
			s, ok := p.(string)
			if !ok {
				return FilterSpec{}, &FilterSpecError{Spec: v}
			}
			patterns[i] = s
		}
		return NewFilterSpec(patterns...)
	}
	return FilterSpec{}, &FilterSpecError{Spec: v}
}

// NewFilterSpec compiles a list of patterns.
func NewFilterSpec(patterns ...string) (FilterSpec, error) {
	if len(patterns) == 0 {
		return FilterSpec{}, &FilterSpecError{Spec: patterns}
	}
	spec := FilterSpec{mode: filterPatterns, patterns: make([]filterPattern, len(patterns))}
	for i, p := range patterns {
		fp := filterPattern{source: p, include: true}
		if rest, ok := strings.CutPrefix(p, "!"); ok {
			fp.include = false
			p = rest
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return FilterSpec{}, &FilterSpecError{Spec: patterns, Err: err}
		}
		fp.re = re
		spec.patterns[i] = fp
	}
	return spec, nil
}

// key identifies the filter in view caches.
func (f FilterSpec) key() string {
	switch f.mode {
	case filterAll:
		return "true"
	case filterNone:
		return "false"
	}
	srcs := make([]string, len(f.patterns))
	for i, p := range f.patterns {
		srcs[i] = p.source
	}
	return strings.Join(srcs, "\x00")
}

func (f FilterSpec) String() string {
	if f.mode != filterPatterns {
		return f.key()
	}
	return "[" + strings.ReplaceAll(f.key(), "\x00", ", ") + "]"
}

// Match applies the filter to a set of tags. Every pattern is tried in order
// and the last one that matches any tag decides; no match excludes.
func (f FilterSpec) Match(tags []string) bool {
	switch f.mode {
	case filterAll:
		return true
	case filterNone:
		return false
	}
	match := false
	for _, p := range f.patterns {
		for _, tag := range tags {
			if p.re.MatchString(tag) {
				match = p.include
				break
			}
		}
	}
	return match
}

// Apply returns the members of items the filter keeps, preserving order.
func (f FilterSpec) Apply(items []*Item) []*Item {
	switch f.mode {
	case filterAll:
		return items
	case filterNone:
		return nil
	}
	var out []*Item
	for _, it := range items {
		if f.Match(it.FilterTags()) {
			out = append(out, it)
		}
	}
	return out
}

// FilterTags are the strings a filter is matched against: the source urls of
// the item (fragment removed). Constants report their owner's locations.
func (it *Item) FilterTags() []string {
	src := it
	if it.kind == KindConstant {
		src = it.Parent()
		if src == nil {
			return nil
		}
	}
	locs := src.Locations()
	tags := make([]string, 0, len(locs))
	for _, l := range locs {
		tag := l.URL
		if tag == "" {
			tag = l.Filename
		} else if i := strings.LastIndex(tag, "#"); i >= 0 {
			tag = tag[:i]
		}
		tags = append(tags, tag)
	}
	return tags
}

// View is an item as exposed to callers: nested types hidden unless asked
// for, and every group passed through a filter.
type View struct {
	*Item
	opts     CollectOptions
	members  [numCategories][]*Item
	mappings [numCategories]*Mapping
}

type viewKey struct {
	id          ItemID
	nestedTypes bool
	filter      string
}

// View returns the filtered view of it, computing it once per
// (item, options) pair.
func (t *Tree) View(it *Item, opts CollectOptions) *View {
	key := viewKey{id: it.id, nestedTypes: opts.NestedTypes, filter: opts.Filters.key()}

	t.viewsMu.Lock()
	defer t.viewsMu.Unlock()
	if v, ok := t.views[key]; ok {
		return v
	}
	v := &View{Item: it, opts: opts}
	for _, c := range Categories {
		if c == Types && !opts.NestedTypes {
			continue
		}
		v.members[c] = opts.Filters.Apply(it.Group(c))
		v.mappings[c] = NewMapping(v.members[c])
	}
	t.views[key] = v
	return v
}

// Members returns the filtered members of one child group.
func (v *View) Members(c Category) []*Item {
	if c < 0 || c >= numCategories {
		return nil
	}
	return v.members[c]
}

// Mapping indexes the filtered members of one child group.
func (v *View) Mapping(c Category) *Mapping {
	if c < 0 || c >= numCategories || v.mappings[c] == nil {
		return emptyMapping
	}
	return v.mappings[c]
}

// Options returns the options the view was built with.
func (v *View) Options() CollectOptions { return v.opts }
