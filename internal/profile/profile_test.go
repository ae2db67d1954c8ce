package profile

import (
	"os"
	"testing"
)

func TestFromEnvDefaults(t *testing.T) {
	clearEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"Mode defaults to demo", "demo", profile.Mode},
		{"Driver defaults to sqlite", "sqlite", profile.Driver},
		{"Owner defaults to local", "local", profile.Owner},
		{"Data defaults to empty", "", profile.Data},
		{"DSN defaults to empty", "", profile.DSN},
		{"Scope defaults to empty", "", profile.Scope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, tt.actual)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) string
		expected string
	}{
		{
			name:     "COGNIFY_MODE",
			envVar:   "COGNIFY_MODE",
			envValue: "prod",
			field:    func(p *Profile) string { return p.Mode },
			expected: "prod",
		},
		{
			name:     "COGNIFY_DRIVER",
			envVar:   "COGNIFY_DRIVER",
			envValue: "postgres",
			field:    func(p *Profile) string { return p.Driver },
			expected: "postgres",
		},
		{
			name:     "COGNIFY_DSN",
			envVar:   "COGNIFY_DSN",
			envValue: "postgres://cognify@localhost/cognify",
			field:    func(p *Profile) string { return p.DSN },
			expected: "postgres://cognify@localhost/cognify",
		},
		{
			name:     "COGNIFY_OWNER",
			envVar:   "COGNIFY_OWNER",
			envValue: "alice",
			field:    func(p *Profile) string { return p.Owner },
			expected: "alice",
		},
		{
			name:     "COGNIFY_SCOPE",
			envVar:   "COGNIFY_SCOPE",
			envValue: "spanish",
			field:    func(p *Profile) string { return p.Scope },
			expected: "spanish",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			os.Setenv(tt.envVar, tt.envValue)
			defer os.Unsetenv(tt.envVar)

			profile := &Profile{}
			profile.FromEnv()

			actual := tt.field(profile)
			if actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, actual)
			}
		})
	}
}

func TestFromEnvFlagPrecedence(t *testing.T) {
	clearEnvVars()
	os.Setenv("COGNIFY_DRIVER", "postgres")
	defer os.Unsetenv("COGNIFY_DRIVER")

	// A value set from flags is not overwritten by the environment.
	profile := &Profile{Driver: "sqlite"}
	profile.FromEnv()
	if profile.Driver != "sqlite" {
		t.Errorf("Driver: expected %q, got %q", "sqlite", profile.Driver)
	}
}

func TestValidate(t *testing.T) {
	clearEnvVars()

	dir := t.TempDir()
	profile := &Profile{Mode: "bogus", Data: dir, Driver: "sqlite"}
	if err := profile.Validate(); err != nil {
		t.Fatalf("Validate(): unexpected error %v", err)
	}
	if profile.Mode != "demo" {
		t.Errorf("Mode: expected fallback to %q, got %q", "demo", profile.Mode)
	}
	if profile.DSN == "" {
		t.Error("DSN: expected sqlite default to be filled in")
	}
}

func clearEnvVars() {
	for _, envVar := range []string{
		"COGNIFY_MODE",
		"COGNIFY_DATA",
		"COGNIFY_DSN",
		"COGNIFY_DRIVER",
		"COGNIFY_OWNER",
		"COGNIFY_SCOPE",
	} {
		os.Unsetenv(envVar)
	}
}
