package launchcfg

import (
	"encoding/json"
	"strings"
)

// Config is a launch configuration fragment: a tree of option names to
// scalars, lists and nested mappings, as decoded from JSON.
type Config map[string]any

// flagListKeys are list keys whose entries are command-line flags. An overlay
// entry replaces base entries that carry the same flag name.
var flagListKeys = map[string]struct{}{
	"args":              {},
	"ignoreDefaultArgs": {},
}

// IsFlagList reports whether key holds a list of command-line flags.
func IsFlagList(key string) bool {
	_, ok := flagListKeys[key]
	return ok
}

// FlagName returns the part of a flag before the first '='.
func FlagName(flag string) string {
	name, _, _ := strings.Cut(flag, "=")
	return name
}

// Merge combines overlay onto base and returns a fresh tree. Neither input is
// modified.
//
// When either side is not a mapping the overlay wins. Lists under the same
// key are unioned with duplicates removed, keeping first-seen order. Nested
// mappings merge recursively. Any other conflict is won by the overlay.
func Merge(base, overlay any) any {
	bm, bok := asMap(base)
	om, ook := asMap(overlay)
	if !bok || !ook {
		return Normalize(overlay)
	}

	out := make(map[string]any, len(bm)+len(om))
	for k, v := range bm {
		out[k] = Normalize(v)
	}

	for k, ov := range om {
		bv, exists := out[k]
		if !exists {
			out[k] = Normalize(ov)
			continue
		}

		bl, bIsList := asList(bv)
		ol, oIsList := asList(ov)
		if bIsList && oIsList {
			out[k] = mergeLists(k, bl, ol)
			continue
		}

		if _, ok := asMap(bv); ok {
			if _, ok := asMap(ov); ok {
				out[k] = Merge(bv, ov)
				continue
			}
		}

		out[k] = Normalize(ov)
	}

	return out
}

// MergeConfig merges mapping fragments. A nil fragment is treated as empty.
func MergeConfig(base, overlay Config) Config {
	if base == nil {
		base = Config{}
	}
	if overlay == nil {
		overlay = Config{}
	}
	merged, _ := asMap(Merge(base, overlay))
	return Config(merged)
}

func mergeLists(key string, base, overlay []any) []any {
	if IsFlagList(key) {
		overridden := make(map[string]struct{}, len(overlay))
		for _, v := range overlay {
			if s, ok := v.(string); ok {
				overridden[FlagName(s)] = struct{}{}
			}
		}

		kept := make([]any, 0, len(base))
		for _, v := range base {
			if s, ok := v.(string); ok {
				if _, drop := overridden[FlagName(s)]; drop {
					continue
				}
			}
			kept = append(kept, v)
		}
		base = kept
	}

	seen := make(map[string]struct{}, len(base)+len(overlay))
	out := make([]any, 0, len(base)+len(overlay))
	for _, list := range [][]any{base, overlay} {
		for _, v := range list {
			key := dedupKey(v)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, Normalize(v))
		}
	}
	return out
}

func dedupKey(v any) string {
	data, err := json.Marshal(Normalize(v))
	if err != nil {
		return ""
	}
	return string(data)
}

// Normalize returns a deep copy of v with Config, []string and
// map[string]string values converted to their generic JSON forms.
func Normalize(v any) any {
	switch t := v.(type) {
	case Config:
		return Normalize(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	default:
		return v
	}
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case Config:
		return map[string]any(t), t != nil
	case map[string]any:
		return t, t != nil
	case map[string]string:
		m, _ := Normalize(t).(map[string]any)
		return m, t != nil
	default:
		return nil, false
	}
}

func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		l, _ := Normalize(t).([]any)
		return l, true
	default:
		return nil, false
	}
}
