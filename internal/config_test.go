package internal

import (
	"strings"
	"testing"

	"github.com/starford/oedify/internal/markup"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if !cfg.SQLite.Enabled() {
		t.Error("default config should enable the index")
	}
}

func TestOutputConfig_Name(t *testing.T) {
	for name, ok := range map[string]bool{"oed": true, "oed-2.v1": true, "": false, "../oed": false, "a b": false} {
		cfg := OutputConfig{Dir: "out", Name: name}
		if err := cfg.Validate(); (err == nil) != ok {
			t.Errorf("name %q: err = %v, want ok=%v", name, err, ok)
		}
	}
}

func TestConvertConfig_Validate(t *testing.T) {
	cases := []struct {
		name string
		cfg  ConvertConfig
		ok   bool
	}{
		{"zero", ConvertConfig{}, true},
		{"color", ConvertConfig{PhoneticMode: "color", Workers: 8}, true},
		{"negative workers", ConvertConfig{Workers: -1}, false},
		{"too many workers", ConvertConfig{Workers: 65}, false},
		{"unknown phonetic", ConvertConfig{PhoneticMode: "ipa"}, false},
		{"negative batch", ConvertConfig{BatchSize: -5}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err == nil) != tc.ok {
				t.Errorf("err = %v, want ok=%v", err, tc.ok)
			}
		})
	}
}

func TestConvertConfig_Options(t *testing.T) {
	cfg := ConvertConfig{
		Workers:            3,
		AddSynonyms:        true,
		DebugWords:         []string{"cat"},
		PhoneticMode:       "color",
		BatchSize:          10,
		DuplicateWatchList: []string{"etc"},
	}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Workers != 3 || !opts.AddSynonyms || opts.Phonetic != markup.PhoneticColor || opts.BatchSize != 10 {
		t.Errorf("options = %+v", opts)
	}
	if len(opts.DebugWords) != 1 || len(opts.WatchList) != 1 {
		t.Errorf("lists not carried: %+v", opts)
	}

	opts, err = (&ConvertConfig{}).Options()
	if err != nil || opts.Phonetic != markup.PhoneticBlockquote {
		t.Errorf("empty mode = %q, %v", opts.Phonetic, err)
	}
}

func TestFullConfig_SourceRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Source.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing source path should fail validation")
	}
}
