package settings

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// TagName is the struct tag used when decoding settings into structs and back.
const TagName = "toml"

// MapTo returns a type mapper coercing values into T. Conversion is weakly
// typed ("8080" becomes 8080) and understands durations, RFC3339 times,
// comma-separated slices, IP addresses, CIDRs and URLs.
func MapTo[T any]() MapTypeFunc {
	return func(value any) (any, error) {
		var out T
		if err := weakDecode(value, &out); err != nil {
			var zero T
			return nil, fmt.Errorf("cannot map %T to %T: %w", value, zero, err)
		}
		return out, nil
	}
}

// Scan decodes the settings under basePath into target, which must be a
// non-nil pointer to a struct or map.
func (m *Manager) Scan(basePath string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("scan target must be non-nil pointer, got %T", target)
	}

	section, found := navigateToPath(m.data, basePath)
	if !found {
		section = map[string]any{}
	}
	sectionMap, ok := asObject(section)
	if !ok {
		return fmt.Errorf("path %q refers to non-map value (type %T)", basePath, section)
	}

	if err := weakDecode(sectionMap, target); err != nil {
		return fmt.Errorf("decode failed for path %q: %w", basePath, err)
	}
	return nil
}

// InputFrom converts a tagged struct into an input tree for Change. Fields
// tagged omitempty are left out when zero, so they do not override settings.
func InputFrom(v any) (map[string]any, error) {
	if m, ok := asObject(v); ok {
		return m, nil
	}
	out := map[string]any{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: TagName,
	})
	if err != nil {
		return nil, fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(v); err != nil {
		return nil, fmt.Errorf("cannot convert %T to input: %w", v, err)
	}
	return out, nil
}

func weakDecode(input, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          TagName,
		WeaklyTypedInput: true,
		DecodeHook:       decodeHook(),
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}
	return decoder.Decode(input)
}

// decodeHook returns the composite decode hook for all type conversions.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		stringToNetIPHookFunc(),
		stringToNetIPNetHookFunc(),
		stringToURLHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),
	)
}

func stringToNetIPHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(net.IP{}) {
			return data, nil
		}
		ip := net.ParseIP(reflect.ValueOf(data).String())
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address: %s", data)
		}
		return ip, nil
	}
}

func stringToNetIPNetHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Ptr
		if isPtr {
			t = t.Elem()
		}
		if t != reflect.TypeOf(net.IPNet{}) {
			return data, nil
		}
		_, ipnet, err := net.ParseCIDR(reflect.ValueOf(data).String())
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR: %w", err)
		}
		if isPtr {
			return ipnet, nil
		}
		return *ipnet, nil
	}
}

func stringToURLHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		isPtr := t.Kind() == reflect.Ptr
		if isPtr {
			t = t.Elem()
		}
		if t != reflect.TypeOf(url.URL{}) {
			return data, nil
		}
		u, err := url.Parse(reflect.ValueOf(data).String())
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
		if isPtr {
			return u, nil
		}
		return *u, nil
	}
}
