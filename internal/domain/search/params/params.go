package params

import (
	"fmt"
	"math"
	"net/url"
	"slices"
	"strings"

	"github.com/oapi-codegen/runtime"
	"github.com/spf13/cast"

	"github.com/kailas-cloud/facetdex/internal/domain"
)

// Sentinel values with special meaning for term fields.
const (
	// None as a scalar disables the filter; as a list member it is dropped.
	None = "none"
	// MissingValue as a list member also matches documents without the field.
	MissingValue = "#none"
)

// Shape is the structural form of a selected value.
type Shape int

// Value shapes.
const (
	Scalar Shape = iota + 1
	List
	Bounds
)

// Value is what the user selected for one facet.
type Value struct {
	shape Shape
	items []string
	gte   *int64
	lte   *int64
}

// Text creates a scalar value.
func Text(s string) Value {
	return Value{shape: Scalar, items: []string{s}}
}

// Strings creates a list value.
func Strings(items ...string) Value {
	return Value{shape: List, items: append([]string{}, items...)}
}

// Between creates a bounds value; nil bounds are open.
func Between(gte, lte *int64) Value {
	return Value{shape: Bounds, gte: gte, lte: lte}
}

// Shape returns the structural form of the value.
func (v Value) Shape() Shape { return v.shape }

// IsBlank reports whether the value selects nothing.
func (v Value) IsBlank() bool {
	switch v.shape {
	case Scalar:
		return strings.TrimSpace(v.items[0]) == ""
	case List:
		return len(v.items) == 0
	case Bounds:
		return v.gte == nil && v.lte == nil
	}
	return true
}

// Strings returns the selected strings: one for a scalar, all for a list, none for bounds.
func (v Value) Strings() []string {
	if v.shape == Bounds {
		return nil
	}
	return append([]string(nil), v.items...)
}

// Text returns the scalar text, or the list members joined by spaces.
func (v Value) Text() string {
	return strings.Join(v.items, " ")
}

// Bounds returns the range bounds. Both are nil unless the value has the Bounds shape.
func (v Value) Bounds() (gte, lte *int64) {
	return v.gte, v.lte
}

// Selection is a value with the none/#none sentinels resolved.
type Selection struct {
	// Values are the concrete values to match exactly.
	Values []string
	// Missing also matches documents where the field is absent.
	Missing bool
	// Multi is set when the selection came from a list.
	Multi bool
}

// IsEmpty reports whether the selection filters nothing.
func (s Selection) IsEmpty() bool {
	return len(s.Values) == 0 && !s.Missing
}

// Select resolves sentinels. A scalar "none" yields an empty selection and a
// scalar "#none" is treated like the list ["#none"].
func (v Value) Select() Selection {
	switch v.shape {
	case Scalar:
		switch v.items[0] {
		case None:
			return Selection{}
		case MissingValue:
			return Selection{Missing: true, Multi: true}
		}
		return Selection{Values: []string{v.items[0]}}
	case List:
		sel := Selection{Multi: true, Values: make([]string, 0, len(v.items))}
		for _, item := range v.items {
			switch item {
			case None:
			case MissingValue:
				sel.Missing = true
			default:
				sel.Values = append(sel.Values, item)
			}
		}
		return sel
	}
	return Selection{}
}

// Params maps facet names to selected values.
// A nil Params means no parameters were supplied at all, which differs from an empty one.
type Params map[string]Value

// Lookup returns the value for name if it is present and not blank.
func (p Params) Lookup(name string) (Value, bool) {
	v, ok := p[name]
	if !ok || v.IsBlank() {
		return Value{}, false
	}
	return v, true
}

// IsAbsent reports whether no parameters were supplied at all.
func (p Params) IsAbsent() bool { return p == nil }

// FromMap converts decoded JSON into Params. A nil map yields nil Params.
//
// Strings and numbers become scalars, arrays become lists (blank members
// dropped) and objects become bounds read from "gte" and "lte". Bounds are
// coerced to integers by truncation; non-numeric bounds are rejected.
func FromMap(raw map[string]any) (Params, error) {
	if raw == nil {
		return nil, nil
	}
	p := make(Params, len(raw))
	for name, rv := range raw {
		v, ok, err := decodeValue(rv)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidParams, name, err)
		}
		if ok {
			p[name] = v
		}
	}
	return p, nil
}

func decodeValue(rv any) (Value, bool, error) {
	switch t := rv.(type) {
	case nil:
		return Value{}, false, nil
	case string:
		return Text(t), true, nil
	case []string:
		return Strings(dropBlank(t)...), true, nil
	case []any:
		items := make([]string, 0, len(t))
		for _, it := range t {
			if it == nil {
				continue
			}
			s, err := cast.ToStringE(it)
			if err != nil {
				return Value{}, false, fmt.Errorf("list member: %w", err)
			}
			items = append(items, s)
		}
		return Strings(dropBlank(items)...), true, nil
	case map[string]any:
		gte, err := decodeBound(t["gte"])
		if err != nil {
			return Value{}, false, fmt.Errorf("gte: %w", err)
		}
		lte, err := decodeBound(t["lte"])
		if err != nil {
			return Value{}, false, fmt.Errorf("lte: %w", err)
		}
		return Between(gte, lte), true, nil
	default:
		s, err := cast.ToStringE(t)
		if err != nil {
			return Value{}, false, fmt.Errorf("unsupported value %T", rv)
		}
		return Text(s), true, nil
	}
}

func decodeBound(v any) (*int64, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("bound %v is not a number", v)
	}
	n := int64(f)
	return &n, nil
}

func dropBlank(items []string) []string {
	out := items[:0:0]
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// FromQuery decodes a query string: name=v (repeated name=v makes a list),
// name[]=v for lists and name[gte]=n / name[lte]=n for bounds. Bounds are
// read as deepObject parameters. No keys at all yields nil Params.
func FromQuery(values url.Values) (Params, error) {
	if len(values) == 0 {
		return nil, nil
	}
	raw := make(map[string]any, len(values))
	var objects []string
	for key, vs := range values {
		base, sub := splitKey(key)
		if base == "" {
			continue
		}
		switch sub {
		case "":
			if len(vs) == 1 {
				raw[base] = vs[0]
			} else {
				raw[base] = toAny(vs)
			}
		case "[]":
			list, _ := raw[base].([]any)
			raw[base] = append(list, toAny(vs)...)
		default:
			if !slices.Contains(objects, base) {
				objects = append(objects, base)
			}
		}
	}

	for _, base := range objects {
		bounds, err := deepObjectBounds(base, values)
		if err != nil {
			return nil, err
		}
		if bounds != nil {
			raw[base] = bounds
		}
	}
	return FromMap(raw)
}

// deepObjectBounds reads name[gte] and name[lte]. Other sub-keys are ignored;
// nil means neither bound was given.
func deepObjectBounds(name string, values url.Values) (map[string]any, error) {
	var obj map[string]string
	if err := runtime.UnmarshalDeepObject(&obj, name, values); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidParams, name, err)
	}
	var bounds map[string]any
	for _, k := range []string{"gte", "lte"} {
		if v, ok := obj[k]; ok {
			if bounds == nil {
				bounds = map[string]any{}
			}
			bounds[k] = v
		}
	}
	return bounds, nil
}

func splitKey(key string) (base, sub string) {
	i := strings.IndexByte(key, '[')
	if i < 0 {
		return key, ""
	}
	base = key[:i]
	rest := key[i:]
	if rest == "[]" {
		return base, "[]"
	}
	return base, strings.TrimSuffix(strings.TrimPrefix(rest, "["), "]")
}

func toAny(vs []string) []any {
	out := make([]any, len(vs))
	for i, s := range vs {
		out[i] = s
	}
	return out
}
