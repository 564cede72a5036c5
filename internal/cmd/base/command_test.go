package base

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID    int64    `json:"id"`
	Title string   `json:"title"`
	Code  string   `json:"code"`
	Tags  []string `json:"tags"`
}

func TestOutput(t *testing.T) {
	v := sample{ID: 7, Title: "Hello", Code: "42", Tags: []string{"a", "b"}}

	cases := []struct {
		format string
		want   []string
	}{
		{format: FormatJSON, want: []string{`"id": 7`, `"title": "Hello"`, `"code": "42"`}},
		{format: "", want: []string{`"id": 7`}},
		{format: FormatYAML, want: []string{"id: 7", "title: Hello", `code: "42"`, "tags:\n    - a\n    - b"}},
	}
	for _, tc := range cases {
		t.Run(tc.format, func(t *testing.T) {
			ui := cli.NewMockUi()
			c := NewCommand(hclog.NewNullLogger(), ui)
			require.NoError(t, c.Output(tc.format, v))
			out := ui.OutputWriter.String()
			for _, w := range tc.want {
				assert.Contains(t, out, w)
			}
		})
	}

	c := NewCommand(hclog.NewNullLogger(), cli.NewMockUi())
	assert.Error(t, c.Output("xml", v))
}
