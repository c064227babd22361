package launchcfg

import (
	"fmt"
	"time"
)

// Viewport is the page size applied when a session starts.
type Viewport struct {
	Width  int
	Height int
}

// DefaultViewport applies when the configuration does not name one.
var DefaultViewport = Viewport{Width: 800, Height: 600}

// Options is the typed view of a merged configuration that the browser
// engine understands. Unknown keys are ignored.
type Options struct {
	Headless             bool
	Args                 []string
	ExecutablePath       string
	UserDataDir          string
	IgnoreDefaultArgs    []string
	IgnoreAllDefaultArgs bool
	// Viewport is nil when the configuration sets defaultViewport to null.
	Viewport *Viewport
	SlowMo   time.Duration
	Devtools bool
	Env      map[string]string
}

// DecodeOptions converts a merged configuration into Options.
func DecodeOptions(cfg Config) (Options, error) {
	vp := DefaultViewport
	opts := Options{Viewport: &vp}

	if v, ok := cfg["headless"]; ok && v != nil {
		switch t := v.(type) {
		case bool:
			opts.Headless = t
		case string:
			// "new", "shell" and "true" all select a headless browser.
			opts.Headless = t != "false"
		default:
			return Options{}, fieldError("headless", "boolean or string", v)
		}
	}

	if err := decodeStrings(cfg, "args", &opts.Args); err != nil {
		return Options{}, err
	}

	if v, ok := cfg["ignoreDefaultArgs"]; ok && v != nil {
		if b, isBool := v.(bool); isBool {
			opts.IgnoreAllDefaultArgs = b
		} else if err := decodeStrings(cfg, "ignoreDefaultArgs", &opts.IgnoreDefaultArgs); err != nil {
			return Options{}, err
		}
	}

	for key, dst := range map[string]*string{
		"executablePath": &opts.ExecutablePath,
		"userDataDir":    &opts.UserDataDir,
	} {
		if v, ok := cfg[key]; ok && v != nil {
			s, isStr := v.(string)
			if !isStr {
				return Options{}, fieldError(key, "string", v)
			}
			*dst = s
		}
	}

	if v, ok := cfg["defaultViewport"]; ok {
		if v == nil {
			opts.Viewport = nil
		} else {
			m, isMap := asMap(v)
			if !isMap {
				return Options{}, fieldError("defaultViewport", "object", v)
			}
			w, err := number(m, "width", DefaultViewport.Width)
			if err != nil {
				return Options{}, err
			}
			h, err := number(m, "height", DefaultViewport.Height)
			if err != nil {
				return Options{}, err
			}
			opts.Viewport = &Viewport{Width: w, Height: h}
		}
	}

	if v, ok := cfg["slowMo"]; ok && v != nil {
		ms, isNum := toInt(v)
		if !isNum {
			return Options{}, fieldError("slowMo", "number", v)
		}
		opts.SlowMo = time.Duration(ms) * time.Millisecond
	}

	if v, ok := cfg["devtools"]; ok && v != nil {
		b, isBool := v.(bool)
		if !isBool {
			return Options{}, fieldError("devtools", "boolean", v)
		}
		opts.Devtools = b
	}

	if v, ok := cfg["env"]; ok && v != nil {
		m, isMap := asMap(v)
		if !isMap {
			return Options{}, fieldError("env", "object", v)
		}
		opts.Env = make(map[string]string, len(m))
		for k, e := range m {
			opts.Env[k] = fmt.Sprint(e)
		}
	}

	return opts, nil
}

func decodeStrings(cfg Config, key string, dst *[]string) error {
	v, ok := cfg[key]
	if !ok || v == nil {
		return nil
	}
	list, isList := asList(v)
	if !isList {
		return fieldError(key, "array of strings", v)
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		s, isStr := e.(string)
		if !isStr {
			return fieldError(key, "array of strings", v)
		}
		out = append(out, s)
	}
	*dst = out
	return nil
}

func number(m map[string]any, key string, def int) (int, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return def, nil
	}
	n, isNum := toInt(v)
	if !isNum {
		return 0, fieldError("defaultViewport."+key, "number", v)
	}
	return n, nil
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	default:
		return 0, false
	}
}

func fieldError(key, want string, got any) error {
	return fmt.Errorf("launch option %q: expected %s, got %T", key, want, got)
}
