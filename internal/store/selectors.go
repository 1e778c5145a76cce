package store

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/atopile/dashsync/internal/appstate"
	"github.com/atopile/dashsync/internal/foundation"
	"github.com/atopile/dashsync/internal/packages"
)

// Derived-state selectors: pure functions recomputed on read. They never
// panic; absence is always represented as None or an empty slice.

// NoFileGroup is the sentinel bucket for problems without a file.
const NoFileGroup = "(no file)"

// SelectedProject returns the project whose root matches the current
// selection, or None when nothing is selected or the selection is stale.
func (s *Store) SelectedProject() foundation.Option[appstate.Project] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	root, ok := s.doc.SelectedProjectRoot.Get()
	if !ok {
		return foundation.None[appstate.Project]()
	}
	for _, p := range s.doc.Projects {
		if p.Root == root {
			return foundation.Some(p)
		}
	}
	return foundation.None[appstate.Project]()
}

// SelectedBuild resolves the current build selection. Exact identity via
// selectedBuildId wins over the display-name match; the name is checked
// against both displayName and name because historical and live records use
// different naming fields. Live builds are searched before queued ones.
func (s *Store) SelectedBuild() foundation.Option[appstate.Build] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.doc.SelectedBuildID.Get(); ok {
		for _, b := range s.allBuilds() {
			if bid, has := b.BuildID.Get(); has && bid == id {
				return foundation.Some(b)
			}
		}
	}
	if name, ok := s.doc.SelectedBuildName.Get(); ok {
		for _, b := range s.allBuilds() {
			if b.DisplayName == name || b.Name == name {
				return foundation.Some(b)
			}
		}
	}
	return foundation.None[appstate.Build]()
}

func (s *Store) allBuilds() []appstate.Build {
	out := make([]appstate.Build, 0, len(s.doc.Builds)+len(s.doc.QueuedBuilds))
	out = append(out, s.doc.Builds...)
	out = append(out, s.doc.QueuedBuilds...)
	return out
}

// TargetStatus returns the one current status shown for a build target: a
// live in-flight build takes precedence over the target's lastBuild snapshot;
// a target with neither is idle.
func (s *Store) TargetStatus(projectRoot, targetName string) appstate.BuildStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.doc.Builds {
		if buildMatchesTarget(b, projectRoot, targetName) {
			return b.Status
		}
	}
	for _, b := range s.doc.QueuedBuilds {
		if buildMatchesTarget(b, projectRoot, targetName) {
			return appstate.BuildQueued
		}
	}
	for _, p := range s.doc.Projects {
		if p.Root != projectRoot {
			continue
		}
		for _, t := range p.Targets {
			if t.Name != targetName {
				continue
			}
			if last, ok := t.LastBuild.Get(); ok {
				return last.Status
			}
		}
	}
	return appstate.BuildIdle
}

func buildMatchesTarget(b appstate.Build, projectRoot, targetName string) bool {
	if root, ok := b.ProjectRoot.Get(); !ok || root != projectRoot {
		return false
	}
	if b.Name == targetName || b.DisplayName == targetName {
		return true
	}
	return slices.Contains(b.Targets, targetName)
}

// FilteredProblems returns the problems passing the current filter. A problem
// passes iff its level is enabled AND its buildName is unset or allowed AND
// its stage is unset or allowed; empty allow-lists mean no restriction.
func (s *Store) FilteredProblems() []appstate.Problem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f := s.doc.ProblemFilter
	out := []appstate.Problem{}
	for _, p := range s.doc.Problems {
		if !slices.Contains(f.Levels, p.Level) {
			continue
		}
		if !allowListed(p.BuildName, f.BuildNames) {
			continue
		}
		if !allowListed(p.Stage, f.StageIDs) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// allowListed reports whether an optional group key passes an allow-list.
// An unset key always passes; an empty list restricts nothing.
func allowListed(key foundation.Option[string], allow []string) bool {
	if len(allow) == 0 {
		return true
	}
	v, ok := key.Get()
	if !ok {
		return true
	}
	return slices.Contains(allow, v)
}

// ProblemGroup is a display bucket of problems sharing a file.
type ProblemGroup struct {
	File     string
	Problems []appstate.Problem
}

// GroupedProblems buckets the filtered problems by file, with problems
// lacking a file collected under the "(no file)" sentinel. Within a group
// errors sort before warnings; problems of equal level keep arrival order.
// Groups appear in first-appearance order.
func (s *Store) GroupedProblems() []ProblemGroup {
	filtered := s.FilteredProblems()

	order := []string{}
	byFile := map[string][]appstate.Problem{}
	for _, p := range filtered {
		file := p.File.UnwrapOr(NoFileGroup)
		if _, seen := byFile[file]; !seen {
			order = append(order, file)
		}
		byFile[file] = append(byFile[file], p)
	}

	groups := make([]ProblemGroup, 0, len(order))
	for _, file := range order {
		problems := byFile[file]
		slices.SortStableFunc(problems, func(a, b appstate.Problem) int {
			return levelRank(a.Level) - levelRank(b.Level)
		})
		groups = append(groups, ProblemGroup{File: file, Problems: problems})
	}
	return groups
}

func levelRank(l appstate.ProblemLevel) int {
	if l == appstate.ProblemError {
		return 0
	}
	return 1
}

// FilteredLogs returns log entries whose level is enabled and whose message,
// logger, or stage matches the search query (case-insensitive substring).
func (s *Store) FilteredLogs() []appstate.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(s.doc.LogSearchQuery)
	out := []appstate.LogEntry{}
	for _, e := range s.doc.LogEntries {
		if !slices.Contains(s.doc.EnabledLogLevels, e.Level) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(e.Message), query) &&
			!strings.Contains(strings.ToLower(e.Logger), query) &&
			!strings.Contains(strings.ToLower(e.Stage), query) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SortedPackages returns the package list ordered by name (locale-aware,
// case-insensitive), with the identifier as tiebreaker.
func (s *Store) SortedPackages() []appstate.PackageInfo {
	s.mu.RLock()
	packages := slices.Clone(s.doc.Packages)
	s.mu.RUnlock()

	c := collate.New(language.English, collate.IgnoreCase)
	slices.SortStableFunc(packages, func(a, b appstate.PackageInfo) int {
		if cmp := c.CompareString(a.Name, b.Name); cmp != 0 {
			return cmp
		}
		return c.CompareString(a.Identifier, b.Identifier)
	})
	return packages
}

// SelectedPackageDescriptionHTML renders the selected package's Markdown
// description to HTML. None when no package is selected or the description
// is empty.
func (s *Store) SelectedPackageDescriptionHTML() foundation.Option[string] {
	s.mu.RLock()
	details, ok := s.doc.SelectedPackageDetails.Get()
	s.mu.RUnlock()
	if !ok {
		return foundation.None[string]()
	}
	return packages.DescriptionHTML(&details)
}

// FailedRequirements returns the requirements that did not pass.
func (s *Store) FailedRequirements() []appstate.Requirement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []appstate.Requirement{}
	for _, r := range s.doc.Requirements {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
