package usecase

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func decodeAll(input string) ([]string, error) {
	dec := newArrayDecoder(strings.NewReader(input))
	var out []string
	for {
		raw, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, string(raw))
	}
}

func TestArrayDecoderYieldsElements(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", `[]`, nil},
		{"padded empty", " \n[ ]\t\n", nil},
		{"objects", `[{"a":1}, {"b":[1,2]}]`, []string{`{"a":1}`, `{"b":[1,2]}`}},
		{"mixed values", `[1,"two",null]`, []string{`1`, `"two"`, `null`}},
		{"trailing whitespace", "[{}]\n\n", []string{`{}`}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeAll(tc.input)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d elements, got %v", len(tc.want), got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("element %d: expected %s, got %s", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestArrayDecoderReportsParseErrors(t *testing.T) {
	cases := []struct {
		name      string
		input     string
		wantIndex int
		wantEOF   bool
	}{
		{"empty input", ``, -1, true},
		{"object", `{"a":1}`, -1, false},
		{"scalar", `42`, -1, false},
		{"unterminated array", `[{"a":1}`, 1, true},
		{"dangling comma", `[{"a":1},`, 1, true},
		{"truncated element", `[{"a":`, 0, true},
		{"invalid element", `[{"a":}]`, 0, false},
		{"missing comma", `[1 2]`, 1, false},
		{"second array", `[] []`, -1, false},
		{"trailing garbage", `[{}] x`, -1, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeAll(tc.input)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if parseErr.Index != tc.wantIndex {
				t.Fatalf("expected index %d, got %d (%v)", tc.wantIndex, parseErr.Index, err)
			}
			if tc.wantEOF && !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
			}
		})
	}
}

func TestArrayDecoderStaysDone(t *testing.T) {
	dec := newArrayDecoder(strings.NewReader(`[1]`))
	if _, err := dec.Next(); err != nil {
		t.Fatalf("first element: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := dec.Next(); !errors.Is(err, io.EOF) {
			t.Fatalf("call %d: expected io.EOF, got %v", i, err)
		}
	}
}
