package docs

import "strings"

// Program is the top-level structure of `crystal docs --format=json` output.
type Program struct {
	RepositoryName string  `json:"repository_name"`
	Body           string  `json:"body"`
	Program        *Record `json:"program"`
}

// Record is a single documented item as emitted by the crystal docs generator.
// Types, constants and methods all share this shape; fields that do not apply
// to a kind are left at their zero value.
type Record struct {
	ID       string `json:"id"`
	HTMLID   string `json:"html_id"`
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	FullName string `json:"full_name"`
	Name     string `json:"name"`
	Abstract bool   `json:"abstract"`
	Doc      string `json:"doc"`
	Summary  string `json:"summary"`

	// Constants
	Value string `json:"value"`

	// Aliases. Older generators only emit the plain form.
	Aliased     string `json:"aliased"`
	AliasedHTML string `json:"aliased_html"`

	Superclass      *TypeRefRecord  `json:"superclass"`
	Ancestors       []TypeRefRecord `json:"ancestors"`
	IncludedModules []TypeRefRecord `json:"included_modules"`
	ExtendedModules []TypeRefRecord `json:"extended_modules"`
	Subclasses      []TypeRefRecord `json:"subclasses"`
	IncludingTypes  []TypeRefRecord `json:"including_types"`

	Locations  []Location `json:"locations"`
	Location   *Location  `json:"location"`
	SourceLink string     `json:"source_link"`

	// Methods. The argument list appears either at the top level or under
	// "def", depending on the generator version.
	ArgList
	ArgsString string  `json:"args_string"`
	ArgsHTML   string  `json:"args_html"`
	Def        *ArgDef `json:"def"`

	Types           []*Record `json:"types"`
	Constants       []*Record `json:"constants"`
	InstanceMethods []*Record `json:"instance_methods"`
	ClassMethods    []*Record `json:"class_methods"`
	Constructors    []*Record `json:"constructors"`
	Macros          []*Record `json:"macros"`
}

// ArgList carries the parts of a method signature that make up its relative id.
type ArgList struct {
	Args        []Arg `json:"args"`
	SplatIndex  *int  `json:"splat_index"`
	DoubleSplat *Arg  `json:"double_splat"`
	BlockArg    *Arg  `json:"block_arg"`
}

// ArgDef is the nested "def" object of newer generators.
type ArgDef struct {
	Name       string `json:"name"`
	ReturnType string `json:"return_type"`
	Visibility string `json:"visibility"`
	ArgList
}

// Arg is a single method parameter.
type Arg struct {
	Name         string `json:"name"`
	ExternalName string `json:"external_name"`
	Restriction  string `json:"restriction"`
	DefaultValue string `json:"default_value"`
}

// TypeRefRecord points at another type by name.
type TypeRefRecord struct {
	FullName string `json:"full_name"`
	Kind     string `json:"kind"`
	HTMLID   string `json:"html_id"`
}

// Location is a source position of a definition.
type Location struct {
	Filename   string `json:"filename"`
	LineNumber int    `json:"line_number"`
	URL        string `json:"url"`
}

// args returns whichever argument list the generator filled in.
func (r *Record) args() ArgList {
	if r.Def != nil && (len(r.Def.Args) > 0 || r.Def.DoubleSplat != nil || r.Def.BlockArg != nil) {
		return r.Def.ArgList
	}
	return r.ArgList
}

// Kind identifies the variant of a documented item.
type Kind string

const (
	KindModule         Kind = "module"
	KindClass          Kind = "class"
	KindStruct         Kind = "struct"
	KindEnum           Kind = "enum"
	KindAlias          Kind = "alias"
	KindAnnotation     Kind = "annotation"
	KindConstant       Kind = "constant"
	KindInstanceMethod Kind = "instance_method"
	KindClassMethod    Kind = "class_method"
	KindMacro          Kind = "macro"
	KindConstructor    Kind = "constructor"
)

// IsType reports whether items of this kind own child groups.
func (k Kind) IsType() bool {
	switch k {
	case KindModule, KindClass, KindStruct, KindEnum, KindAlias, KindAnnotation:
		return true
	}
	return false
}

// IsMethod reports whether items of this kind are callables with a signature.
func (k Kind) IsMethod() bool {
	switch k {
	case KindInstanceMethod, KindClassMethod, KindMacro, KindConstructor:
		return true
	}
	return false
}

// idSeparator is placed between the owner's abs id and a member's rel id.
func (k Kind) idSeparator() string {
	switch k {
	case KindInstanceMethod:
		return "#"
	case KindClassMethod, KindConstructor:
		return "."
	case KindMacro:
		return ":"
	default:
		return "::"
	}
}

// Category is one of the child groups a type owns.
type Category int

const (
	Types Category = iota
	Constants
	InstanceMethods
	ClassMethods
	Constructors
	Macros

	numCategories
)

// Categories lists every child group in declaration order.
var Categories = [...]Category{Types, Constants, InstanceMethods, ClassMethods, Constructors, Macros}

var categoryKeys = [...]string{"types", "constants", "instance_methods", "class_methods", "constructors", "macros"}

// String returns the JSON key of the category.
func (c Category) String() string {
	if c < 0 || c >= numCategories {
		return "unknown"
	}
	return categoryKeys[c]
}

// memberKind is the kind given to non-type members of a category.
func (c Category) memberKind() Kind {
	switch c {
	case Constants:
		return KindConstant
	case InstanceMethods:
		return KindInstanceMethod
	case ClassMethods:
		return KindClassMethod
	case Constructors:
		return KindConstructor
	case Macros:
		return KindMacro
	}
	return ""
}

func (r *Record) group(c Category) []*Record {
	switch c {
	case Types:
		return r.Types
	case Constants:
		return r.Constants
	case InstanceMethods:
		return r.InstanceMethods
	case ClassMethods:
		return r.ClassMethods
	case Constructors:
		return r.Constructors
	case Macros:
		return r.Macros
	}
	return nil
}

// stripGeneric drops the generic part of a type name: "Foo::Bar(T)" → "Foo::Bar".
func stripGeneric(name string) string {
	base, _, _ := strings.Cut(name, "(")
	return base
}
