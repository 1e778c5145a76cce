package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atopile/dashsync/internal/appstate"
	"github.com/atopile/dashsync/internal/foundation"
)

func TestToggleString(t *testing.T) {
	tests := []struct {
		name string
		list []string
		v    string
		want []string
	}{
		{"add to empty", []string{}, "a", []string{"a"}},
		{"add missing", []string{"a", "b"}, "c", []string{"a", "b", "c"}},
		{"remove first", []string{"a", "b", "c"}, "a", []string{"b", "c"}},
		{"remove middle keeps order", []string{"a", "b", "c"}, "b", []string{"a", "c"}},
		{"remove last", []string{"a", "b", "c"}, "c", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, toggleString(tt.list, tt.v))
		})
	}
}

func TestToggleTwiceRestoresAbsentElement(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	s.SetSelectedTargets([]string{"a", "b"})
	s.ToggleTarget("c")
	s.ToggleTarget("c")
	require.Equal(t, []string{"a", "b"}, s.Snapshot().SelectedTargetNames)
}

func TestToggleDoesNotMutateSharedSlice(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	original := []string{"a", "b"}
	s.SetSelectedTargets(original)
	s.ToggleTarget("c")
	require.Equal(t, []string{"a", "b"}, original)
}

func TestSetProjectsClearsLoadingAndNormalizesNil(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	s.SetLoadingProjects(true)
	s.SetProjects(nil, foundation.None[string]())

	snap := s.Snapshot()
	require.False(t, snap.IsLoadingProjects)
	require.NotNil(t, snap.Projects)
	require.Empty(t, snap.Projects)
}

func TestErrorSetterClearsLoadingFlag(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	s.SetLoadingPackages(true)
	s.SetPackagesError(foundation.Some("boom"))

	snap := s.Snapshot()
	require.False(t, snap.IsLoadingPackages)
	require.Equal(t, "boom", snap.PackagesError.UnwrapOr(""))
}

func TestAddInstallingPackageDedupesAndClearsError(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	s.RemoveInstallingPackage("none", foundation.Some("previous failure"))
	require.True(t, s.Snapshot().InstallError.IsSome())

	s.AddInstallingPackage("pkg/a")
	s.AddInstallingPackage("pkg/a")

	snap := s.Snapshot()
	require.Equal(t, []string{"pkg/a"}, snap.InstallingPackageIDs)
	require.True(t, snap.InstallError.IsNone())
}

func TestRemoveInstallingPackageReportsError(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	s.AddInstallingPackage("pkg/a")
	s.AddInstallingPackage("pkg/b")
	s.RemoveInstallingPackage("pkg/a", foundation.Some("install failed"))

	snap := s.Snapshot()
	require.Equal(t, []string{"pkg/b"}, snap.InstallingPackageIDs)
	require.Equal(t, "install failed", snap.InstallError.UnwrapOr(""))
}

func TestRemoveInstallingPackageWithoutErrorKeepsField(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	s.AddInstallingPackage("pkg/a")
	s.RemoveInstallingPackage("pkg/a", foundation.None[string]())

	snap := s.Snapshot()
	require.Empty(t, snap.InstallingPackageIDs)
	require.True(t, snap.InstallError.IsNone())
}

func TestToggleProblemLevelFilterProtectsLastLevel(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	// Both levels enabled at start.
	s.ToggleProblemLevelFilter(appstate.ProblemWarning)
	require.Equal(t, []appstate.ProblemLevel{appstate.ProblemError}, s.Snapshot().ProblemFilter.Levels)

	// The last remaining level stays put.
	s.ToggleProblemLevelFilter(appstate.ProblemError)
	require.Equal(t, []appstate.ProblemLevel{appstate.ProblemError}, s.Snapshot().ProblemFilter.Levels)

	s.ToggleProblemLevelFilter(appstate.ProblemWarning)
	require.ElementsMatch(t,
		[]appstate.ProblemLevel{appstate.ProblemError, appstate.ProblemWarning},
		s.Snapshot().ProblemFilter.Levels)
}

func TestSettersTouchOnlyTheirFields(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	s.SetProjects([]appstate.Project{{Root: "/p"}}, foundation.None[string]())
	s.SetBuilds([]appstate.Build{{Name: "default", Status: appstate.BuildBuilding}})

	s.SetPackages([]appstate.PackageInfo{{Identifier: "pkg/a", Name: "a"}}, foundation.None[string]())

	snap := s.Snapshot()
	require.Len(t, snap.Projects, 1)
	require.Len(t, snap.Builds, 1)
	require.Len(t, snap.Packages, 1)
}

func TestSetAtopileInstallingClearsProgressWhenDone(t *testing.T) {
	s := New(Config{})
	defer s.Close()

	s.SetAtopileInstalling(true, foundation.None[string]())
	require.True(t, s.Snapshot().Atopile.IsInstalling)

	s.SetAtopileInstalling(false, foundation.Some("pip failed"))
	snap := s.Snapshot()
	require.False(t, snap.Atopile.IsInstalling)
	require.True(t, snap.Atopile.InstallProgress.IsNone())
	require.Equal(t, "pip failed", snap.Atopile.Error.UnwrapOr(""))
}
