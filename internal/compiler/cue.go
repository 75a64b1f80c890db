package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ParseCUE compiles a CUE query document.
//
// The CUE value must be concrete: constraints and defaults are resolved by
// the evaluator, then the value is exported and compiled like a JSON
// document. This lets documents share definitions:
//
//	#paged: { limit: *20 | int, offset: *0 | int, ... }
//	query: #paged & {
//	    select: ["s.id"]
//	    from: [{entity: "survey", as: "s"}]
//	}
func ParseCUE(data []byte, filename string) (*Document, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	exported, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}

	raw, err := decodeJSON(exported)
	if err != nil {
		return nil, fmt.Errorf("ParseCUE: failed to decode export: %w", err)
	}
	return compileDocument(raw, data)
}

// decodeJSON decodes a JSON object keeping numbers exact.
func decodeJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}
