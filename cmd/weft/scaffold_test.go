package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weftgen/weft/pkg/catalog"
	"github.com/weftgen/weft/pkg/crif"
)

func TestBuildScaffoldFileEmitsTaggedStubs(t *testing.T) {
	steps := []*crif.UnimplementedStep{
		{
			NormalizedKeyword: "Given",
			Text:              "a wallet with {amount} balance",
			Method:            "AWalletWithBalance",
			Parameters: []*crif.StubParameter{
				{Name: "amount", Type: "int", IsLast: true},
			},
		},
		{
			NormalizedKeyword: "Then",
			Text:              "the request is rejected",
			Method:            "TheRequestIsRejected",
		},
	}

	file := buildScaffoldFile("steps", steps)

	var buf bytes.Buffer
	require.NoError(t, file.Render(&buf))
	source := buf.String()

	require.Contains(t, source, "package steps")
	require.Contains(t, source, "@weft:given")
	require.Contains(t, source, "a wallet with {amount:int} balance")
	require.Contains(t, source, "func (s *Steps) AWalletWithBalance(amount int) error")
	require.Contains(t, source, "@weft:then")
	require.Contains(t, source, "func (s *Steps) TheRequestIsRejected() error")
}

func TestBuildScaffoldFileWithNoStepsStillEmitsPackage(t *testing.T) {
	feature := crif.Feature{}
	_ = feature

	file := buildScaffoldFile("steps", nil)
	var buf bytes.Buffer
	require.NoError(t, file.Render(&buf))
	require.True(t, strings.Contains(buf.String(), "package steps"))
}

func TestGoTypeMapsCatalogTypes(t *testing.T) {
	require.Equal(t, "[][]string", goType(catalog.DataTableType))
	require.Equal(t, "int", goType("int"))
	require.Equal(t, "string", goType("string"))
	require.Equal(t, "string", goType("anything-else"))
}
