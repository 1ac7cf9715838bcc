package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, path := range [][]string{
		{"serve"},
		{"session", "mint"},
		{"portfolios", "list"},
		{"portfolios", "duplicate"},
		{"sections", "catalog"},
		{"sections", "set"},
	} {
		found, _, err := root.Find(path)
		require.NoError(t, err, strings.Join(path, " "))
		assert.Equal(t, path[len(path)-1], found.Name())
	}
}

func TestSectionsCatalogCommandPrintsEveryType(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"sections", "catalog"})
	require.NoError(t, root.Execute())

	output := out.String()
	assert.Contains(t, output, "TYPE")
	assert.Contains(t, output, "hero")
	assert.Contains(t, output, "testimonials")
}

func TestParseAssignments(t *testing.T) {
	patch, err := parseAssignments([]string{`title=Staff Engineer`, `showSocial=false`, `items=[{"label":"Home"}]`, "empty="})
	require.NoError(t, err)

	assert.JSONEq(t, `"Staff Engineer"`, string(patch["title"]))
	assert.JSONEq(t, `false`, string(patch["showSocial"]))
	assert.JSONEq(t, `[{"label":"Home"}]`, string(patch["items"]))
	assert.JSONEq(t, `""`, string(patch["empty"]))
	assert.True(t, json.Valid(patch["empty"]))

	_, err = parseAssignments([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"=value"})
	assert.Error(t, err)
}
