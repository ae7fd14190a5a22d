package flow

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeMeta decodes the thread's metadata bag into a typed struct. The
// bag is opaque to the engine; steps that carry structured values between
// turns (selected field, reporting window, emoji→guild mappings) use this
// instead of hand-rolled type assertions.
func DecodeMeta(t *Thread, out any) error {
	config := &mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return fmt.Errorf("metadata decoder: %w", err)
	}
	if err := decoder.Decode(t.metadata); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}
	return nil
}
