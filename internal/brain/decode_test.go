package brain

import "testing"

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"leading prose", `Here is the result: {"a":1} hope that helps`, `{"a":1}`, true},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`, true},
		{"brace in string", `{"a":"x{y}z"}`, `{"a":"x{y}z"}`, true},
		{"escaped quote in string", `{"a":"he said \"}\""}`, `{"a":"he said \"}\""}`, true},
		{"unbalanced", `{"a":1`, "", false},
		{"no object", `just some text`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractObject(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractObject(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDecodeLooseKeepsDefaults(t *testing.T) {
	type out struct {
		Summary string  `json:"summary"`
		Score   float64 `json:"score"`
	}

	v := out{Summary: "fallback", Score: 0.5}
	if DecodeLoose("no json here at all", &v) {
		t.Fatal("expected decode failure")
	}
	if v.Summary != "fallback" || v.Score != 0.5 {
		t.Errorf("defaults were clobbered: %+v", v)
	}

	v = out{Score: 0.5}
	if !DecodeLoose("```json\n{\"summary\":\"ok\"}\n```", &v) {
		t.Fatal("expected decode success")
	}
	if v.Summary != "ok" {
		t.Errorf("summary = %q", v.Summary)
	}
	// Fields the model omitted keep their initialized values.
	if v.Score != 0.5 {
		t.Errorf("score = %f, want untouched 0.5", v.Score)
	}
}

func TestDecodeLooseMalformedInner(t *testing.T) {
	var v map[string]any
	if DecodeLoose(`{"a": }`, &v) {
		t.Fatal("expected failure on malformed object")
	}
}
