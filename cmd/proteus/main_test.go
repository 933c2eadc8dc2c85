package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testDocument = `{
    "name": "demo",
    "fields": [
        {"kind": "group", "name": "method", "values": ["GET", "POST"]},
        {"kind": "static", "name": "tail", "value": "!"},
    ],
}`

func writeBlueprint(t *testing.T, doc string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "demo.hujson")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	return path
}

func Test_Run_Prints_Counts_And_Renders(t *testing.T) {
	t.Parallel()

	var out strings.Builder

	err := run([]string{writeBlueprint(t, testDocument), "--max", "1"}, &out)
	require.NoError(t, err)

	got := out.String()
	require.Contains(t, got, "template: demo\n")
	require.Contains(t, got, "mutations: 2\n")
	require.Contains(t, got, "default: [32 bits] 47455421\n") // "GET!"
	require.Contains(t, got, "#0: [32 bits] 47455421\n")      // first group candidate
	require.NotContains(t, got, "#1:")
}

func Test_Run_Skips_Before_Printing(t *testing.T) {
	t.Parallel()

	var out strings.Builder

	err := run([]string{writeBlueprint(t, testDocument), "--skip", "1"}, &out)
	require.NoError(t, err)

	got := out.String()
	require.Contains(t, got, "skipped: 1\n")
	require.Contains(t, got, "#1: [40 bits] 504f535421\n") // "POST!"
	require.NotContains(t, got, "#0:")
}

func Test_Run_Rejects_Missing_Arguments(t *testing.T) {
	t.Parallel()

	var out strings.Builder

	require.Error(t, run(nil, &out))
	require.Error(t, run([]string{"a.hujson", "b.hujson"}, &out))
}

func Test_Run_Rejects_Bad_Session_Entries(t *testing.T) {
	t.Parallel()

	var out strings.Builder

	err := run([]string{writeBlueprint(t, testDocument), "--session", "no-separator"}, &out)
	require.Error(t, err)
}

func Test_Run_Applies_Session_Data(t *testing.T) {
	t.Parallel()

	doc := `{
	    "name": "demo",
	    "fields": [
	        {"kind": "dynamic", "name": "token", "key": "auth", "value": "anon", "fuzzable": false},
	    ],
	}`

	var out strings.Builder

	err := run([]string{writeBlueprint(t, doc), "--session", "auth=sesame"}, &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "default: [48 bits] 736573616d65\n")
}
