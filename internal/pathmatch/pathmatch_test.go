package pathmatch

import "testing"

func TestCompile_Valid(t *testing.T) {
	tests := []struct {
		pattern string
		literal bool
	}{
		{"/", true},
		{"/widgets", true},
		{"/widgets/summary", true},
		{"/widgets/{id}", false},
		{"/api/v1/{pillar}/items/{id}", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := Compile(tt.pattern)
			if err != nil {
				t.Fatalf("Compile(%q) error: %v", tt.pattern, err)
			}
			if p.IsLiteral() != tt.literal {
				t.Errorf("IsLiteral() = %v, want %v", p.IsLiteral(), tt.literal)
			}
			if p.String() != tt.pattern {
				t.Errorf("String() = %q, want %q", p.String(), tt.pattern)
			}
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	patterns := []string{
		"",
		"widgets/{id}",
		"/widgets/*",
		"/widgets//parts",
		"/widgets/{}",
		"/widgets/{id",
		"/widgets/id}",
		"/widgets/{id}x",
		"/pairs/{a}/{a}",
	}

	for _, pattern := range patterns {
		if _, err := Compile(pattern); err == nil {
			t.Errorf("Compile(%q) expected error, got nil", pattern)
		}
	}
}

func TestMatch_ParamExtraction(t *testing.T) {
	p, err := Compile("/widgets/{id}")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	params, ok := p.Match("/widgets/42")
	if !ok {
		t.Fatal("expected /widgets/42 to match /widgets/{id}")
	}
	if params["id"] != "42" {
		t.Errorf("params[id] = %q, want %q", params["id"], "42")
	}
}

func TestMatch_Miss(t *testing.T) {
	p, err := Compile("/widgets/{id}")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	misses := []string{"/widgets", "/widgets/42/parts", "/gadgets/42", "/"}
	for _, path := range misses {
		if _, ok := p.Match(path); ok {
			t.Errorf("expected %q not to match /widgets/{id}", path)
		}
	}
}

func TestMatch_MultipleParams(t *testing.T) {
	p, err := Compile("/api/{pillar}/items/{id}")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	params, ok := p.Match("/api/content/items/abc-123")
	if !ok {
		t.Fatal("expected match")
	}
	if params["pillar"] != "content" || params["id"] != "abc-123" {
		t.Errorf("unexpected params: %v", params)
	}
}

func TestMatch_TrailingSlash(t *testing.T) {
	p, err := Compile("/widgets/{id}")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if _, ok := p.Match("/widgets/42/"); !ok {
		t.Error("expected trailing-slash path to match")
	}
}

func TestMatch_Root(t *testing.T) {
	p, err := Compile("/")
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if _, ok := p.Match("/"); !ok {
		t.Error("expected / to match /")
	}
	if _, ok := p.Match("/widgets"); ok {
		t.Error("expected /widgets not to match /")
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"/widgets/{id}", "/widgets/summary", true},
		{"/a/{x}/b", "/a/{x}/{y}", true},
		{"/a/{x}", "/b/{y}", false},
		{"/widgets/{id}", "/widgets/{id}/parts", false},
		{"/widgets/summary", "/widgets/summary", true},
	}

	for _, tt := range tests {
		a, err := Compile(tt.a)
		if err != nil {
			t.Fatalf("Compile(%q) error: %v", tt.a, err)
		}
		b, err := Compile(tt.b)
		if err != nil {
			t.Fatalf("Compile(%q) error: %v", tt.b, err)
		}
		if got := Overlaps(a, b); got != tt.want {
			t.Errorf("Overlaps(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := Overlaps(b, a); got != tt.want {
			t.Errorf("Overlaps(%q, %q) = %v, want %v", tt.b, tt.a, got, tt.want)
		}
	}
}
