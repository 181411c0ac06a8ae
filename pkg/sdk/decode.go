package facetdex

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

const tagKey = "facetdex"

// Decode maps a record's fields onto T using `facetdex:"name"` struct tags.
// Input is weakly typed, so string values read from Redis hashes decode into
// numeric and boolean fields.
func Decode[T any](r Record) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          tagKey,
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, fmt.Errorf("facetdex: decoder: %w", err)
	}
	if err := dec.Decode(r.Fields); err != nil {
		return out, fmt.Errorf("facetdex: decode record %s: %w", r.ID, err)
	}
	return out, nil
}

// DecodeAll decodes every record, stopping at the first failure.
func DecodeAll[T any](records []Record) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, r := range records {
		v, err := Decode[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
