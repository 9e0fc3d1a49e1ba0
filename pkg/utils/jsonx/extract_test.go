package jsonx_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/parlaplate/pkg/utils/jsonx"
)

func TestExtract(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{
			name:  "object surrounded by prose",
			input: `noise {"a":1} trailing`,
			want:  `{"a":1}`,
			found: true,
		},
		{
			name:  "first balanced array is invalid",
			input: `[1,2,]bad then [1,2]`,
			want:  `[1,2]`,
			found: true,
		},
		{
			name:  "no json at all",
			input: "no json here",
			found: false,
		},
		{
			name:  "array wins over earlier object",
			input: `{"a":1} and ["x","y"]`,
			want:  `["x","y"]`,
			found: true,
		},
		{
			name:  "markdown fenced object",
			input: "```json\n{\"action\":\"ASK\",\"intent_clear\":false}\n```",
			want:  `{"action":"ASK","intent_clear":false}`,
			found: true,
		},
		{
			name:  "brackets inside string literals",
			input: `{"notes":"use [low] heat","action":"ASK"}`,
			want:  `{"notes":"use [low] heat","action":"ASK"}`,
			found: true,
		},
		{
			name:  "escaped quote inside string",
			input: `ok {"notes":"say \"hi\" {once}"} done`,
			want:  `{"notes":"say \"hi\" {once}"}`,
			found: true,
		},
		{
			name:  "truncated object falls through",
			input: `{"action":"ASK","notes":"cut off`,
			found: false,
		},
		{
			name:  "nested object",
			input: `prefix {"a":{"b":[1,2]}} suffix`,
			want:  `{"a":{"b":[1,2]}}`,
			found: true,
		},
		{
			name:  "empty input",
			input: "",
			found: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := jsonx.Extract(tc.input)
			gt.V(t, ok).Equal(tc.found)
			if tc.found {
				gt.V(t, got).Equal(tc.want)
			}
		})
	}
}

func TestStrip(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "decision object before reply",
			input: `{"action":"ASK","intent_clear":false,"notes":"diet"} What would you like today?`,
			want:  "What would you like today?",
		},
		{
			name: "truncated decision fragment consumes its tail",
			// A fragment with no closing brace cannot be separated from
			// what follows; the caller substitutes the fallback prompt.
			input: `{"action":"RECOMMEND","intent_clear":true and some tail`,
			want:  "",
		},
		{
			name:  "fenced payload with trailing brace",
			input: "```\n{\"action\":\"ASK\"}\n```\nSure thing}",
			want:  "Sure thing",
		},
		{
			name:  "leading comma residue",
			input: `, welcome back`,
			want:  "welcome back",
		},
		{
			name:  "everything stripped away",
			input: `{"action":"ASK","intent_clear":false}`,
			want:  "",
		},
		{
			name:  "malformed array residue removed",
			input: `Tamam! [1,2,]`,
			want:  "Tamam!",
		},
		{
			name:  "malformed object residue removed",
			input: `{"action":} Ne alırsınız?`,
			want:  "Ne alırsınız?",
		},
		{
			name:  "plain text untouched",
			input: "Enjoy your meal",
			want:  "Enjoy your meal",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.V(t, jsonx.Strip(tc.input)).Equal(tc.want)
		})
	}
}
