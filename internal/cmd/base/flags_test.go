package base

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDs(t *testing.T) {
	cases := []struct {
		name    string
		args    []string
		want    []int64
		wantErr bool
	}{
		{name: "separate", args: []string{"1", "2"}, want: []int64{1, 2}},
		{name: "comma separated", args: []string{"3,4", "5"}, want: []int64{3, 4, 5}},
		{name: "empty parts", args: []string{"6,,"}, want: []int64{6}},
		{name: "none", args: nil, want: nil},
		{name: "not a number", args: []string{"x"}, wantErr: true},
		{name: "zero", args: []string{"0"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseIDs(tc.args)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFlagSetHelp(t *testing.T) {
	var name string
	var verbose bool
	f := NewFlagSet(flag.NewFlagSet("test", flag.ContinueOnError))
	f.StringVar(&name, "name", "default", "The name.")
	f.BoolVar(&verbose, "verbose", false, "Be verbose.")

	help := f.Help()
	assert.Contains(t, help, "Options:")
	assert.Contains(t, help, "-name=default")
	assert.Contains(t, help, "The name.")
	assert.Contains(t, help, "-verbose\n")
}

func TestConfigPath(t *testing.T) {
	t.Setenv(ConfigEnvVar, "")
	assert.Equal(t, "distributor.hcl", ConfigPath(""))
	assert.Equal(t, "a.hcl", ConfigPath("a.hcl"))

	t.Setenv(ConfigEnvVar, "b.hcl")
	assert.Equal(t, "b.hcl", ConfigPath(""))
	assert.Equal(t, "a.hcl", ConfigPath("a.hcl"))
}
