package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

type fieldKind int

const (
	stringField fieldKind = iota
	countField            // non-negative integer
)

// fieldSet enumerates exactly the document fields a partial update may
// write. Anything else in the request body is rejected.
type fieldSet map[string]fieldKind

var (
	toolAvailabilityFields = fieldSet{"available": countField}

	// role is deliberately absent; only PromoteAdmin writes it.
	profileFields = fieldSet{
		"email":     stringField,
		"location":  stringField,
		"phone":     stringField,
		"education": stringField,
		"linkedIn":  stringField,
	}
)

func (fs fieldSet) decode(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, badRequest("bad json")
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, badRequest("body must be a JSON object")
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	set := make(map[string]any, len(raw))
	for _, k := range keys {
		kind, ok := fs[k]
		if !ok {
			return nil, badRequest(fmt.Sprintf("field %q cannot be written here", k))
		}
		switch kind {
		case stringField:
			s, ok := raw[k].(string)
			if !ok {
				return nil, badRequest(fmt.Sprintf("field %q must be a string", k))
			}
			set[k] = s
		case countField:
			n, ok := raw[k].(json.Number)
			if !ok {
				return nil, badRequest(fmt.Sprintf("field %q must be a number", k))
			}
			i, err := n.Int64()
			if err != nil || i < 0 {
				return nil, badRequest(fmt.Sprintf("field %q must be a non-negative integer", k))
			}
			set[k] = i
		}
	}
	return set, nil
}
