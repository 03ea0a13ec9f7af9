package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ResolvedParams holds validated parameters keyed by name. Values are one of
// string, int64, bool or []string, with declared defaults already applied.
// Optional parameters without a default are absent when not supplied.
type ResolvedParams map[string]any

// Bind copies the resolved values into the struct pointed to by out.
// Fields are matched by their `param` tag.
func (p ResolvedParams) Bind(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "param",
		Result:  out,
	})
	if err != nil {
		return fmt.Errorf("failed to create parameter decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(p)); err != nil {
		return fmt.Errorf("failed to bind parameters: %w", err)
	}
	return nil
}
