package appstate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atopile/dashsync/internal/foundation"
)

func TestPatchDecodeKeepsAbsentFieldsNil(t *testing.T) {
	raw := `{
		"seq": 42,
		"projects": [{"root": "/p", "name": "demo", "targets": []}],
		"isLoadingProjects": false,
		"packagesError": "registry down"
	}`

	var p Patch
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	require.Equal(t, uint64(42), p.Seq)
	require.NotNil(t, p.Projects)
	require.Len(t, *p.Projects, 1)
	require.NotNil(t, p.IsLoadingProjects)
	require.False(t, *p.IsLoadingProjects)
	require.NotNil(t, p.PackagesError)
	require.Equal(t, "registry down", p.PackagesError.UnwrapOr(""))

	// Absent keys stay nil so Apply leaves those fields untouched.
	require.Nil(t, p.Builds)
	require.Nil(t, p.Problems)
	require.Nil(t, p.ProjectsError)
	require.Nil(t, p.Atopile)
}

func TestPatchDecodeNullErrorMeansClear(t *testing.T) {
	var p Patch
	require.NoError(t, json.Unmarshal([]byte(`{"packagesError": null}`), &p))
	require.NotNil(t, p.PackagesError)
	require.True(t, p.PackagesError.IsNone())
}

func TestPatchApplyMergesOnlyPresentFields(t *testing.T) {
	doc := New()
	doc.Version = "0.1.0"
	doc.LogSearchQuery = "keep me"

	v := "0.2.0"
	loading := true
	p := Patch{Version: &v, IsLoadingProjects: &loading}
	p.Apply(doc)

	require.Equal(t, "0.2.0", doc.Version)
	require.True(t, doc.IsLoadingProjects)
	require.Equal(t, "keep me", doc.LogSearchQuery)
}

func TestPatchApplyReplacesAtopileAsUnit(t *testing.T) {
	doc := New()
	doc.Atopile.CurrentVersion = "0.9.0"
	doc.Atopile.AvailableVersions = []string{"0.9.0"}

	p := Patch{Atopile: &AtopileConfig{
		Source:         SourceBranch,
		CurrentVersion: "0.10.0",
	}}
	p.Apply(doc)

	require.Equal(t, SourceBranch, doc.Atopile.Source)
	require.Equal(t, "0.10.0", doc.Atopile.CurrentVersion)
	// Nested objects merge as a unit; the old list is gone.
	require.Nil(t, doc.Atopile.AvailableVersions)
}

func TestPatchTransientErrors(t *testing.T) {
	errVal := foundation.Some("boom")
	cleared := foundation.None[string]()
	p := Patch{
		PackagesError: &errVal,
		BOMError:      &cleared,
		Atopile:       &AtopileConfig{Error: foundation.Some("toolchain broke")},
	}

	updates := p.TransientErrors()
	byField := map[string]foundation.Option[string]{}
	for _, u := range updates {
		byField[u.Field] = u.Value
	}

	require.Equal(t, "boom", byField[FieldPackagesError].UnwrapOr(""))
	require.True(t, byField[FieldBOMError].IsNone())
	require.Equal(t, "toolchain broke", byField[FieldAtopileError].UnwrapOr(""))
	require.NotContains(t, byField, FieldProjectsError)
}

func TestStateBroadcastRoundTrip(t *testing.T) {
	doc := New()
	doc.Problems = []Problem{{
		ID:      "p1",
		Level:   ProblemError,
		Message: "unrouted net",
		File:    foundation.Some("main.ato"),
		Line:    foundation.Some(14),
	}}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded AppState
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, doc.Problems, decoded.Problems)
	require.Equal(t, doc.EnabledLogLevels, decoded.EnabledLogLevels)
}

func TestPatchDecodeNullIsAWriteNotAnOmission(t *testing.T) {
	raw := `{
		"packagesError": null,
		"selectedProjectRoot": null,
		"bomData": null,
		"openFile": null,
		"projects": null
	}`
	var p Patch
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	require.NotNil(t, p.PackagesError)
	require.True(t, p.PackagesError.IsNone())
	require.NotNil(t, p.SelectedProjectRoot)
	require.True(t, p.SelectedProjectRoot.IsNone())
	require.NotNil(t, p.BOMData)
	require.True(t, p.BOMData.IsNone())
	require.NotNil(t, p.OpenFile)
	require.True(t, p.OpenFile.IsNone())
	require.NotNil(t, p.Projects)
	require.Nil(t, *p.Projects)

	doc := New()
	doc.PackagesError = foundation.Some("registry down")
	doc.SelectedProjectRoot = foundation.Some("/p")
	doc.BOMData = foundation.Some(BOMData{})
	doc.Projects = []Project{{Root: "/p"}}
	p.Apply(doc)

	require.True(t, doc.PackagesError.IsNone())
	require.True(t, doc.SelectedProjectRoot.IsNone())
	require.True(t, doc.BOMData.IsNone())
	require.Nil(t, doc.Projects)
}
