package backend

import "testing"

func TestParseGitVersionOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "empty", in: "", ok: false},
		{name: "plain", in: "git version 2.44.0\n", want: "v2.44.0", ok: true},
		{name: "apple_git", in: "git version 2.39.3 (Apple Git-146)\n", want: "v2.39.3", ok: true},
		{name: "windows_suffix", in: "git version 2.39.3.windows.1\n", want: "v2.39.3", ok: true},
		{name: "no_prefix", in: "2.42.1\n", want: "v2.42.1", ok: true},
		{name: "no_patch", in: "git version 2.42\n", want: "v2.42.0", ok: true},
		{name: "invalid", in: "git version not-a-version\n", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parseGitVersionOutput(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (got=%q)", ok, tt.ok, got)
			}
			if ok && got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateGitVersionOutput(t *testing.T) {
	old := minGitVersion
	t.Cleanup(func() { minGitVersion = old })
	minGitVersion = "v2.20.0"

	if err := validateGitVersionOutput("git version 2.20.0\n"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := validateGitVersionOutput("git version 2.45.1 (Apple Git-150)\n"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := validateGitVersionOutput("git version 2.19.9\n"); err == nil {
		t.Fatal("expected error for old git")
	}
	if err := validateGitVersionOutput("garbage"); err == nil {
		t.Fatal("expected error for unparsable output")
	}
}
