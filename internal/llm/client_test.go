package llm

import "testing"

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fenced with language",
			in:   "```go\npackage main\n```",
			want: "package main",
		},
		{
			name: "fenced without language",
			in:   "```\nhello\nworld\n```",
			want: "hello\nworld",
		},
		{
			name: "no fence",
			in:   "package main\n",
			want: "package main\n",
		},
		{
			name: "fence inside content is kept",
			in:   "```python\nprint('a')\n# ```\nprint('b')\n```",
			want: "print('a')\n# ```\nprint('b')",
		},
		{
			name: "unclosed fence keeps body",
			in:   "```go\npackage main",
			want: "package main",
		},
		{
			name: "bare fence line",
			in:   "```",
			want: "```",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.in); got != tt.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildContents(t *testing.T) {
	req := Request{
		History: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleModel, Content: "hello"},
		},
		Prompt: "write a function",
	}

	contents := buildContents(req)
	if len(contents) != 3 {
		t.Fatalf("Expected 3 contents, got %d", len(contents))
	}
	if contents[0].Role != "user" || contents[1].Role != "model" {
		t.Errorf("History roles wrong: %s, %s", contents[0].Role, contents[1].Role)
	}
	if contents[2].Role != "user" {
		t.Errorf("Prompt should be a user turn, got %s", contents[2].Role)
	}
	if contents[2].Parts[0].Text != "write a function" {
		t.Errorf("Prompt text mismatch: %q", contents[2].Parts[0].Text)
	}
}
