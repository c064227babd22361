package launchcfg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDangerousFlags(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{name: "no args", cfg: Config{}, want: nil},
		{name: "safe args", cfg: Config{"args": []any{"--lang=en", "--window-size=1,1"}}, want: nil},
		{name: "exact match", cfg: Config{"args": []any{"--no-sandbox"}}, want: []string{"--no-sandbox"}},
		{
			name: "prefix match",
			cfg:  Config{"args": []any{"--disable-features=IsolateOrigins,site-per-process"}},
			want: []string{"--disable-features=IsolateOrigins,site-per-process"},
		},
		{
			name: "all found in order",
			cfg:  Config{"args": []any{"--single-process", "--lang=en", "--disable-web-security"}},
			want: []string{"--single-process", "--disable-web-security"},
		},
		{name: "non-string entries ignored", cfg: Config{"args": []any{1.0, "--no-sandbox"}}, want: []string{"--no-sandbox"}},
		{name: "args not a list", cfg: Config{"args": "--no-sandbox"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindDangerousFlags(tt.cfg))
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("rejects dangerous flags without override", func(t *testing.T) {
		err := Validate(Config{"args": []any{"--no-sandbox", "--ignore-certificate-errors"}}, false)
		require.Error(t, err)

		var violation *SafetyViolation
		require.True(t, errors.As(err, &violation))
		assert.Equal(t, []string{"--no-sandbox", "--ignore-certificate-errors"}, violation.Flags)
		assert.Contains(t, err.Error(), "--no-sandbox, --ignore-certificate-errors")
		assert.Contains(t, err.Error(), "allowDangerous")
		assert.Contains(t, err.Error(), "ALLOW_DANGEROUS=true")
	})

	t.Run("override accepts dangerous flags", func(t *testing.T) {
		assert.NoError(t, Validate(Config{"args": []any{"--no-sandbox"}}, true))
	})

	t.Run("safe config always passes", func(t *testing.T) {
		assert.NoError(t, Validate(Config{"args": []any{"--lang=en"}}, false))
		assert.NoError(t, Validate(Config{}, true))
	})

	t.Run("adding a dangerous flag never turns rejection into acceptance", func(t *testing.T) {
		rejected := Config{"args": []any{"--no-sandbox"}}
		require.Error(t, Validate(rejected, false))

		more := MergeConfig(rejected, Config{"args": []any{"--disable-web-security"}})
		assert.Error(t, Validate(more, false))
	})
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, Config{"headless": false}, Defaults(false))

	container := Defaults(true)
	assert.Equal(t, true, container["headless"])
	assert.Equal(t, []any{"--no-sandbox", "--single-process", "--no-zygote"}, container["args"])
}
