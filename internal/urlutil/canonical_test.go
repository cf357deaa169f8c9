package urlutil

import "testing"

func TestURLCanonicalization(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "Simple HTTPS",
			input: "https://example.com",
			want:  "https://example.com",
		},
		{
			name:  "Uppercase Scheme and Host",
			input: "HTTPS://Overbrutal-Semiexclusively.NGROK-free.dev",
			want:  "https://overbrutal-semiexclusively.ngrok-free.dev",
		},
		{
			name:  "With Default HTTP Port",
			input: "http://example.com:80/path",
			want:  "http://example.com/path",
		},
		{
			name:  "With Default HTTPS Port",
			input: "https://example.com:443/path",
			want:  "https://example.com/path",
		},
		{
			name:  "With Custom Port",
			input: "http://example.com:8080/path",
			want:  "http://example.com:8080/path",
		},
		{
			name:  "With Fragment and Query",
			input: "http://example.com/path?x=1#section1",
			want:  "http://example.com/path",
		},
		{
			name:  "With Trailing Slashes",
			input: "http://example.com/path//",
			want:  "http://example.com/path",
		},
		{
			name:  "Root Path with Trailing Slash",
			input: "http://example.com/",
			want:  "http://example.com",
		},
		{
			name:  "Surrounding Whitespace",
			input: "  https://example.com  ",
			want:  "https://example.com",
		},
		{
			name:    "Invalid URL",
			input:   "://example.com",
			wantErr: true,
		},
		{
			name:    "Relative URL",
			input:   "/path/to/resource",
			wantErr: true,
		},
		{
			name:    "Unsupported Scheme",
			input:   "ftp://example.com",
			wantErr: true,
		},
		{
			name:    "Missing Host",
			input:   "https:///path",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Canonicalize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("Canonicalize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"https://a.example", "/link2asr", "https://a.example/link2asr"},
		{"https://a.example/", "civitai", "https://a.example/civitai"},
		{"https://a.example/api", "/v1", "https://a.example/api/v1"},
		{"https://a.example", "", "https://a.example"},
	}
	for _, tt := range tests {
		if got := Join(tt.base, tt.path); got != tt.want {
			t.Errorf("Join(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}
