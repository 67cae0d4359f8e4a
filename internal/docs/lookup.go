package docs

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// MaxAliasDepth bounds how many aliases a single lookup may follow.
const MaxAliasDepth = 16

// ErrAliasDepth is reported when alias targets keep pointing at other aliases.
var ErrAliasDepth = errors.New("alias chain too deep")

// ResolutionError means an identifier matched nothing at any scope. Callers
// usually recover by rendering the identifier as plain text.
type ResolutionError struct {
	Identifier string
	Name       string
	Err        error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%q: %v", e.Identifier, e.Err)
	}
	return fmt.Sprintf("%q: can't find %q", e.Identifier, e.Name)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// UnknownSeparatorError signals a token separator outside the grammar.
type UnknownSeparatorError struct {
	Identifier string
	Separator  string
}

func (e *UnknownSeparatorError) Error() string {
	return fmt.Sprintf("%q: unknown separator %q", e.Identifier, e.Separator)
}

// lookupOrder lists, per separator, the child groups to probe; first match wins.
var lookupOrder = map[string][]Category{
	"":   {Types, Constants, InstanceMethods, ClassMethods, Constructors, Macros},
	"::": {Types, Constants},
	"#":  {InstanceMethods, ClassMethods, Constructors, Macros},
	".":  {ClassMethods, Constructors, InstanceMethods, Macros},
	":":  {Macros},
}

// separators in matching order; "::" must be tried before ":".
var separators = []string{"::", "#", ".", ":"}

type token struct {
	sep  string
	name string
}

// tokenize splits an identifier into (separator, name) pairs. An identifier
// that does not start with a separator gets an implicit empty one. Separators
// inside parentheses belong to the name, so "Hash(K, Foo::Bar)" stays whole.
func tokenize(identifier string) []token {
	var (
		toks  []token
		sep   string
		start int
		depth int
	)
	matchSep := func(i int) string {
		for _, s := range separators {
			if strings.HasPrefix(identifier[i:], s) {
				return s
			}
		}
		return ""
	}
	if s := matchSep(0); s != "" {
		sep = s
		start = len(s)
	}
	for i := start; i < len(identifier); {
		switch identifier[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		}
		if depth == 0 {
			if s := matchSep(i); s != "" {
				toks = append(toks, token{sep: sep, name: identifier[start:i]})
				sep = s
				i += len(s)
				start = i
				continue
			}
		}
		i++
	}
	return append(toks, token{sep: sep, name: identifier[start:]})
}

func normalizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
}

// Lookup finds the item an identifier denotes, relative to scope. A nil scope
// or a leading "::" starts at the root. When nothing matches, the whole
// identifier is retried against each enclosing namespace in turn.
func (t *Tree) Lookup(identifier string, scope *Item) (*Item, error) {
	if scope == nil || strings.HasPrefix(identifier, "::") {
		scope = t.Root()
	}
	return t.lookup(identifier, scope, 0)
}

func (t *Tree) lookup(identifier string, scope *Item, aliasDepth int) (*Item, error) {
	if aliasDepth > MaxAliasDepth {
		return nil, &ResolutionError{Identifier: identifier, Err: ErrAliasDepth}
	}
	for {
		it, err := t.walk(identifier, scope, aliasDepth)
		if err == nil {
			return it, nil
		}
		var rerr *ResolutionError
		if !errors.As(err, &rerr) || rerr.Err != nil || scope.IsRoot() {
			return nil, err
		}
		scope = scope.Parent()
	}
}

// walk resolves every token of identifier starting at scope, without falling
// back to enclosing namespaces.
func (t *Tree) walk(identifier string, scope *Item, aliasDepth int) (*Item, error) {
	obj := scope
	for _, tok := range tokenize(identifier) {
		order, ok := lookupOrder[tok.sep]
		if !ok {
			return nil, &UnknownSeparatorError{Identifier: identifier, Separator: tok.sep}
		}
		var found *Item
		if obj.kind.IsType() {
			mappings := make(chain, len(order))
			for i, c := range order {
				mappings[i] = obj.Mapping(c)
			}
			name := normalizeName(tok.name)
			found = mappings.get(name)
			if found == nil {
				if bare, _, cut := strings.Cut(name, "("); cut {
					found = mappings.get(bare)
				}
			}
		}
		if found == nil {
			return nil, &ResolutionError{Identifier: identifier, Name: tok.name}
		}
		obj = found
		if found.kind == KindAlias {
			target, err := t.lookup("::"+strings.TrimPrefix(found.Aliased(), "::"), t.Root(), aliasDepth+1)
			switch {
			case err == nil:
				obj = target
			case errors.Is(err, ErrAliasDepth):
				return nil, &ResolutionError{Identifier: identifier, Err: ErrAliasDepth}
			}
		}
	}
	return obj, nil
}

// CollectOptions controls the view returned by Collect.
type CollectOptions struct {
	// NestedTypes keeps the Types group of the result.
	NestedTypes bool
	// Filters selects group members by their source locations.
	Filters FilterSpec
}

// Collect resolves identifier like Lookup and returns the result as a filtered view.
func (t *Tree) Collect(identifier string, scope *Item, opts CollectOptions) (*View, error) {
	it, err := t.Lookup(identifier, scope)
	if err != nil {
		return nil, err
	}
	return t.View(it, opts), nil
}
