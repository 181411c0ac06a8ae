package field

// Kind selects how a field's selected value is matched.
type Kind string

// Field kind constants.
const (
	// MultiMatch is a partial match across several backend fields (all terms required).
	MultiMatch Kind = "multi_match"
	// Term is an exact match on one value or any of several values.
	Term  Kind = "term"
	Terms Kind = "terms"
	// Match is a partial text match on a single backend field.
	Match Kind = "match"
	// Range is an inclusive integer range.
	Range Kind = "range"
)

// IsValid checks if the kind is one of the supported values.
func (k Kind) IsValid() bool {
	switch k {
	case MultiMatch, Term, Terms, Match, Range:
		return true
	}
	return false
}

// Operator combines several selected values of a Terms field.
type Operator string

// Operator constants.
const (
	And Operator = "and"
	Or  Operator = "or"
)

// Field is an immutable descriptor of one facet in an entity schema.
type Field struct {
	name            string
	paths           []string
	kind            Kind
	facet           bool
	includeInSearch bool
	operator        Operator
}

// Option configures optional Field flags.
type Option func(*Field)

// Faceted marks the field as aggregated into facet options.
func Faceted() Option {
	return func(f *Field) { f.facet = true }
}

// KeepOwnFilter keeps the field's own filter when aggregating its facet options.
func KeepOwnFilter() Option {
	return func(f *Field) { f.includeInSearch = true }
}

// WithOperator sets the value combination operator. Anything but Or means And.
func WithOperator(op Operator) Option {
	return func(f *Field) { f.operator = op }
}

// New creates a Field. It never fails: a field with an unknown kind or no
// paths is kept and compiles to an empty clause.
func New(name string, paths []string, kind Kind, opts ...Option) Field {
	f := Field{
		name:     name,
		paths:    append([]string(nil), paths...),
		kind:     kind,
		operator: And,
	}
	for _, o := range opts {
		o(&f)
	}
	return f
}

// Name returns the facet name (the search parameter key).
func (f Field) Name() string { return f.name }

// Paths returns the backend field paths.
func (f Field) Paths() []string { return append([]string(nil), f.paths...) }

// Path returns the first backend field path, or "" when none is set.
func (f Field) Path() string {
	if len(f.paths) == 0 {
		return ""
	}
	return f.paths[0]
}

// Kind returns the matching kind.
func (f Field) Kind() Kind { return f.kind }

// IsFacet reports whether the field is aggregated into facet options.
func (f Field) IsFacet() bool { return f.facet }

// IncludeInSearch reports whether the field's own filter applies to its facet aggregation.
func (f Field) IncludeInSearch() bool { return f.includeInSearch }

// Operator returns the value combination operator.
func (f Field) Operator() Operator {
	if f.operator == Or {
		return Or
	}
	return And
}
