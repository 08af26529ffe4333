package canonjson

import (
	"encoding/json"
	"testing"
)

func TestAppendString(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", `"hello"`},
		{"empty", "", `""`},
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"short escapes", "\b\f\n\r\t", `"\b\f\n\r\t"`},
		{"other controls", "\x00\x01\x1f", `"\u0000\u0001\u001f"`},
		{"del is raw", "\x7f", "\"\x7f\""},
		{"html is raw", "<a href='x'>&</a>", `"<a href='x'>&</a>"`},
		{"slash is raw", "a/b", `"a/b"`},
		{"emoji is raw", "conversations 😯", "\"conversations 😯\""},
		{"line separators are raw", "\u2028\u2029", "\"\u2028\u2029\""},
		{"invalid utf8 replaced", "a\xffb", "\"a�b\""},
		{"truncated rune replaced", "x\xf0\x9f", "\"x��\""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := string(AppendString(nil, tc.in))
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestAppendString_IsValidJSON(t *testing.T) {
	in := "mixed \x00 \" \\ \U0001F62F \u2028 <>&\x1b"
	out := AppendString(nil, in)
	var back string
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if back != in {
		t.Fatalf("round trip mismatch: %q", back)
	}
}

func TestAppendInt(t *testing.T) {
	if got := string(AppendInt(nil, 1672310253)); got != "1672310253" {
		t.Fatalf("got %s", got)
	}
	if got := string(AppendInt(nil, -9223372036854775808)); got != "-9223372036854775808" {
		t.Fatalf("got %s", got)
	}
}

func TestAppendStringMatrix(t *testing.T) {
	if got := string(AppendStringMatrix(nil, nil)); got != "[]" {
		t.Fatalf("nil matrix: got %s", got)
	}
	rows := [][]string{{"e", "abc", ""}, nil, {"p"}}
	if got := string(AppendStringMatrix(nil, rows)); got != `[["e","abc",""],[],["p"]]` {
		t.Fatalf("got %s", got)
	}
}
