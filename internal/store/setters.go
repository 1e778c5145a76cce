package store

import (
	"slices"

	"github.com/atopile/dashsync/internal/appstate"
	"github.com/atopile/dashsync/internal/foundation"
)

// Fine-grained setters. Each owns exactly one slice of the document and never
// touches unrelated slices. Error-bearing setters clear the matching loading
// flag, so a field is never left with loading=true and a non-null error.
// Setters never return errors; invalid input is normalized, not rejected.

// toggleString flips membership of v in list, preserving the order of the
// remaining elements.
func toggleString(list []string, v string) []string {
	if i := slices.Index(list, v); i >= 0 {
		return append(list[:i:i], list[i+1:]...)
	}
	return append(slices.Clone(list), v)
}

// SetProjects replaces the project list, clears the loading flag, and arms
// the projects error when set.
func (s *Store) SetProjects(projects []appstate.Project, err foundation.Option[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if projects == nil {
		projects = []appstate.Project{}
	}
	s.doc.Projects = projects
	s.doc.ProjectsError = err
	s.doc.IsLoadingProjects = false
	s.armTransient(appstate.FieldProjectsError, err)
}

// SetLoadingProjects sets the projects loading flag.
func (s *Store) SetLoadingProjects(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.IsLoadingProjects = loading
}

// SelectProject sets the selected project root.
func (s *Store) SelectProject(root foundation.Option[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SelectedProjectRoot = root
}

// SetSelectedTargets replaces the selected target name list.
func (s *Store) SetSelectedTargets(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if names == nil {
		names = []string{}
	}
	s.doc.SelectedTargetNames = names
}

// ToggleTarget flips a target's selection.
func (s *Store) ToggleTarget(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SelectedTargetNames = toggleString(s.doc.SelectedTargetNames, name)
}

// ToggleTargetExpanded flips a target's sidebar expansion.
func (s *Store) ToggleTargetExpanded(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.ExpandedTargets = toggleString(s.doc.ExpandedTargets, name)
}

// ToggleTestSelected flips a test's selection.
func (s *Store) ToggleTestSelected(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SelectedTestIDs = toggleString(s.doc.SelectedTestIDs, id)
}

// SetBuilds replaces the live build list.
func (s *Store) SetBuilds(builds []appstate.Build) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if builds == nil {
		builds = []appstate.Build{}
	}
	s.doc.Builds = builds
}

// SetQueuedBuilds replaces the queued build list.
func (s *Store) SetQueuedBuilds(queued []appstate.Build) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if queued == nil {
		queued = []appstate.Build{}
	}
	s.doc.QueuedBuilds = queued
}

// SetSelectedBuild sets the selected build display name.
func (s *Store) SetSelectedBuild(name foundation.Option[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SelectedBuildName = name
}

// SetSelectedBuildID sets the selected build identity.
func (s *Store) SetSelectedBuildID(id foundation.Option[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SelectedBuildID = id
}

// SetPackages replaces the package list, clears the loading flag, and arms
// the packages error when set.
func (s *Store) SetPackages(packages []appstate.PackageInfo, err foundation.Option[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if packages == nil {
		packages = []appstate.PackageInfo{}
	}
	s.doc.Packages = packages
	s.doc.PackagesError = err
	s.doc.IsLoadingPackages = false
	s.armTransient(appstate.FieldPackagesError, err)
}

// SetLoadingPackages sets the packages loading flag.
func (s *Store) SetLoadingPackages(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.IsLoadingPackages = loading
}

// SetPackagesError arms the packages error without touching the list.
func (s *Store) SetPackagesError(err foundation.Option[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.PackagesError = err
	s.doc.IsLoadingPackages = false
	s.armTransient(appstate.FieldPackagesError, err)
}

// AddInstallingPackage tracks a package install in progress. Adding an ID
// already present is a no-op, and starting an install clears any prior
// install error.
func (s *Store) AddInstallingPackage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.doc.InstallingPackageIDs, id) {
		s.doc.InstallingPackageIDs = append(slices.Clone(s.doc.InstallingPackageIDs), id)
	}
	s.doc.InstallError = foundation.None[string]()
	s.armTransient(appstate.FieldInstallError, foundation.None[string]())
}

// RemoveInstallingPackage stops tracking a package install, arming the
// install error when one is reported.
func (s *Store) RemoveInstallingPackage(id string, err foundation.Option[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.doc.InstallingPackageIDs, id); i >= 0 {
		ids := s.doc.InstallingPackageIDs
		s.doc.InstallingPackageIDs = append(ids[:i:i], ids[i+1:]...)
	}
	if err.IsSome() {
		s.doc.InstallError = err
		s.armTransient(appstate.FieldInstallError, err)
	}
}

// SetBOMData replaces the BOM, clears the loading flag, and arms the BOM
// error when set.
func (s *Store) SetBOMData(bom foundation.Option[appstate.BOMData], err foundation.Option[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.BOMData = bom
	s.doc.BOMError = err
	s.doc.IsLoadingBOM = false
	s.armTransient(appstate.FieldBOMError, err)
}

// SetPackageDetails replaces the selected package details, clears the loading
// flag, and arms the details error when set.
func (s *Store) SetPackageDetails(details foundation.Option[appstate.PackageDetails], err foundation.Option[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.SelectedPackageDetails = details
	s.doc.PackageDetailsError = err
	s.doc.IsLoadingPackageDetails = false
	s.armTransient(appstate.FieldPackageDetailsError, err)
}

// SetVariablesData replaces the variables tree, clears the loading flag, and
// arms the variables error when set.
func (s *Store) SetVariablesData(data foundation.Option[appstate.VariablesData], err foundation.Option[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.CurrentVariablesData = data
	s.doc.VariablesError = err
	s.doc.IsLoadingVariables = false
	s.armTransient(appstate.FieldVariablesError, err)
}

// SetProblems replaces the problems list and clears its loading flag.
func (s *Store) SetProblems(problems []appstate.Problem) {
	s.mu.Lock()
	if problems == nil {
		problems = []appstate.Problem{}
	}
	s.doc.Problems = problems
	s.doc.IsLoadingProblems = false
	evt := problemsChanged(problems)
	s.mu.Unlock()
	s.publish(evt)
}

// ToggleProblemLevelFilter flips a level in the problem filter. The last
// remaining level cannot be removed.
func (s *Store) ToggleProblemLevelFilter(level appstate.ProblemLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	levels := s.doc.ProblemFilter.Levels
	if i := slices.Index(levels, level); i >= 0 {
		if len(levels) > 1 {
			s.doc.ProblemFilter.Levels = append(levels[:i:i], levels[i+1:]...)
		}
		return
	}
	s.doc.ProblemFilter.Levels = append(slices.Clone(levels), level)
}

// SetProblemBuildFilter replaces the build-name allow-list. Empty means open.
func (s *Store) SetProblemBuildFilter(buildNames []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if buildNames == nil {
		buildNames = []string{}
	}
	s.doc.ProblemFilter.BuildNames = buildNames
}

// SetProblemStageFilter replaces the stage allow-list. Empty means open.
func (s *Store) SetProblemStageFilter(stageIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stageIDs == nil {
		stageIDs = []string{}
	}
	s.doc.ProblemFilter.StageIDs = stageIDs
}

// SetStdlibItems replaces the standard library list and clears its loading
// flag.
func (s *Store) SetStdlibItems(items []appstate.StdLibItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if items == nil {
		items = []appstate.StdLibItem{}
	}
	s.doc.StdlibItems = items
	s.doc.IsLoadingStdlib = false
}

// SetRequirements replaces the requirements list and clears its loading flag.
func (s *Store) SetRequirements(reqs []appstate.Requirement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reqs == nil {
		reqs = []appstate.Requirement{}
	}
	s.doc.Requirements = reqs
	s.doc.IsLoadingRequirements = false
}

// SetDeveloperMode flips developer mode.
func (s *Store) SetDeveloperMode(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.DeveloperMode = enabled
}

// SetAtopileInstalling sets toolchain install status, arming the toolchain
// error when one is reported. Finishing an install clears its progress.
func (s *Store) SetAtopileInstalling(installing bool, err foundation.Option[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Atopile.IsInstalling = installing
	s.doc.Atopile.Error = err
	if !installing {
		s.doc.Atopile.InstallProgress = foundation.None[appstate.InstallProgress]()
	}
	s.armTransient(appstate.FieldAtopileError, err)
}

// SetAtopileSource sets where the toolchain installs from.
func (s *Store) SetAtopileSource(source appstate.AtopileSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Atopile.Source = source
}

// SetAtopileVersion sets the current toolchain version string.
func (s *Store) SetAtopileVersion(version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Atopile.CurrentVersion = version
}

// SetAtopileLocalPath sets the local toolchain path. Validation errors for
// this path are surfaced inline by the caller and never auto-expire.
func (s *Store) SetAtopileLocalPath(path foundation.Option[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Atopile.LocalPath = path
}

// SetProjectModules replaces the module list for one project root.
func (s *Store) SetProjectModules(root string, modules []appstate.ModuleDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.ProjectModules == nil {
		s.doc.ProjectModules = map[string][]appstate.ModuleDefinition{}
	}
	s.doc.ProjectModules[root] = modules
	s.doc.IsLoadingModules = false
}

// SetProjectFiles replaces the file tree for one project root.
func (s *Store) SetProjectFiles(root string, files []appstate.FileTreeNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.ProjectFiles == nil {
		s.doc.ProjectFiles = map[string][]appstate.FileTreeNode{}
	}
	s.doc.ProjectFiles[root] = files
	s.doc.IsLoadingFiles = false
}
