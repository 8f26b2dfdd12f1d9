package engine

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// decodeParams converts resolved step parameters into a typed struct using
// json tags, with weak typing so YAML-decoded numbers coerce cleanly.
func decodeParams(m map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "json",
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(m); err != nil {
		return fmt.Errorf("failed to decode parameters: %w", err)
	}
	return nil
}

// ToStringValueMap flattens a parameter map to strings, used for outbound
// header/query maps.
func ToStringValueMap(m map[string]any) map[string]string {
	result := make(map[string]string, len(m))
	for key, value := range m {
		switch v := value.(type) {
		case string:
			result[key] = v
		case nil:
			result[key] = ""
		default:
			result[key] = fmt.Sprintf("%v", v)
		}
	}
	return result
}

// isFalsy reports whether a hook result counts as a denial: nil, false,
// zero, or the empty string.
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	}
	if n, ok := asNumber(v); ok {
		return n == 0
	}
	return false
}
