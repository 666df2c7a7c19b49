package services

import "testing"

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple title", input: "Tech Academy", want: "tech-academy"},
		{name: "punctuation collapsed", input: "Hello,  World!", want: "hello-world"},
		{name: "digits kept", input: "Go 101", want: "go-101"},
		{name: "leading and trailing noise", input: "  --Advanced Go--  ", want: "advanced-go"},
		{name: "already a slug", input: "already-a-slug", want: "already-a-slug"},
		{name: "only separators", input: "!!!", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateSlug(tt.input); got != tt.want {
				t.Errorf("GenerateSlug(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
