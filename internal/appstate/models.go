// Package appstate defines the AppState document and its sub-entities: the
// single in-memory source of truth mirrored from the atopile dashboard
// backend. Field names marshal to camelCase to match the wire format.
package appstate

import (
	"github.com/atopile/dashsync/internal/foundation"
)

// BuildStatus is the lifecycle status of a build or build target.
type BuildStatus string

const (
	BuildIdle     BuildStatus = "idle"
	BuildQueued   BuildStatus = "queued"
	BuildBuilding BuildStatus = "building"
	BuildSuccess  BuildStatus = "success"
	BuildError    BuildStatus = "error"
	BuildWarning  BuildStatus = "warning"
)

// StageStatus is the status of a single build stage.
type StageStatus string

const (
	StagePending StageStatus = "pending"
	StageRunning StageStatus = "running"
	StageSuccess StageStatus = "success"
	StageWarning StageStatus = "warning"
	StageError   StageStatus = "error"
	StageSkipped StageStatus = "skipped"
)

// ProblemLevel is the severity of a build problem.
type ProblemLevel string

const (
	ProblemError   ProblemLevel = "error"
	ProblemWarning ProblemLevel = "warning"
)

// LogLevel is a log entry severity as emitted by the build pipeline.
type LogLevel string

const (
	LogDebug   LogLevel = "DEBUG"
	LogInfo    LogLevel = "INFO"
	LogWarning LogLevel = "WARNING"
	LogError   LogLevel = "ERROR"
	LogAlert   LogLevel = "ALERT"
)

// CaptureKind identifies the simulation capture a requirement was checked in.
type CaptureKind string

const (
	CaptureDCOP      CaptureKind = "dcop"
	CaptureTransient CaptureKind = "transient"
	CaptureAC        CaptureKind = "ac"
)

// AtopileSource identifies where the atopile toolchain is installed from.
type AtopileSource string

const (
	SourceRelease AtopileSource = "release"
	SourceBranch  AtopileSource = "branch"
	SourceLocal   AtopileSource = "local"
)

// BuildStage is one stage of a build with its counters.
type BuildStage struct {
	Name           string                    `json:"name"`
	StageID        string                    `json:"stageId"`
	DisplayName    foundation.Option[string] `json:"displayName"`
	ElapsedSeconds float64                   `json:"elapsedSeconds"`
	Status         StageStatus               `json:"status"`
	Infos          int                       `json:"infos"`
	Warnings       int                       `json:"warnings"`
	Errors         int                       `json:"errors"`
	Alerts         int                       `json:"alerts"`
}

// BuildTargetStatus is the snapshot of a target's most recent completed build.
type BuildTargetStatus struct {
	Status         BuildStatus                `json:"status"`
	Timestamp      string                     `json:"timestamp"`
	ElapsedSeconds foundation.Option[float64] `json:"elapsedSeconds"`
	Warnings       int                        `json:"warnings"`
	Errors         int                        `json:"errors"`
	Stages         []BuildStage               `json:"stages,omitempty"`
}

// BuildTarget is a named compilation/output unit within a project,
// identified by (project root, name).
type BuildTarget struct {
	Name      string                               `json:"name"`
	Entry     string                               `json:"entry"`
	Root      string                               `json:"root"`
	LastBuild foundation.Option[BuildTargetStatus] `json:"lastBuild"`
}

// Project is a design project identified by its filesystem root.
type Project struct {
	Root    string        `json:"root"`
	Name    string        `json:"name"`
	Targets []BuildTarget `json:"targets"`
}

// Build is a live or historical build record. Live records carry Name,
// historical ones DisplayName; selectors check both.
type Build struct {
	Name           string                     `json:"name"`
	DisplayName    string                     `json:"displayName"`
	ProjectName    foundation.Option[string]  `json:"projectName"`
	BuildID        foundation.Option[string]  `json:"buildId"`
	Status         BuildStatus                `json:"status"`
	ElapsedSeconds float64                    `json:"elapsedSeconds"`
	Warnings       int                        `json:"warnings"`
	Errors         int                        `json:"errors"`
	ReturnCode     foundation.Option[int]     `json:"returnCode"`
	Error          foundation.Option[string]  `json:"error"`
	ProjectRoot    foundation.Option[string]  `json:"projectRoot"`
	Targets        []string                   `json:"targets,omitempty"`
	Entry          foundation.Option[string]  `json:"entry"`
	StartedAt      foundation.Option[float64] `json:"startedAt"`
	Stages         []BuildStage               `json:"stages,omitempty"`
	LogDir         foundation.Option[string]  `json:"logDir"`
	LogFile        foundation.Option[string]  `json:"logFile"`
	QueuePosition  foundation.Option[int]     `json:"queuePosition"`
}

// Problem is an error or warning surfaced from a build, attributable to a
// file/line, identified by a unique ID.
type Problem struct {
	ID           string                    `json:"id"`
	Level        ProblemLevel              `json:"level"`
	Message      string                    `json:"message"`
	File         foundation.Option[string] `json:"file"`
	Line         foundation.Option[int]    `json:"line"`
	Column       foundation.Option[int]    `json:"column"`
	Stage        foundation.Option[string] `json:"stage"`
	Logger       foundation.Option[string] `json:"logger"`
	BuildName    foundation.Option[string] `json:"buildName"`
	ProjectName  foundation.Option[string] `json:"projectName"`
	Timestamp    foundation.Option[string] `json:"timestamp"`
	AtoTraceback foundation.Option[string] `json:"atoTraceback"`
	ExcInfo      foundation.Option[string] `json:"excInfo"`
}

// ProblemFilter narrows the problems shown in the problems panel.
// Empty allow-lists mean no restriction, not exclude-all.
type ProblemFilter struct {
	Levels     []ProblemLevel `json:"levels"`
	BuildNames []string       `json:"buildNames"`
	StageIDs   []string       `json:"stageIds"`
}

// LogEntry is one build log line.
type LogEntry struct {
	Timestamp    string                    `json:"timestamp"`
	Level        LogLevel                  `json:"level"`
	Logger       string                    `json:"logger"`
	Stage        string                    `json:"stage"`
	Message      string                    `json:"message"`
	AtoTraceback foundation.Option[string] `json:"atoTraceback"`
	ExcInfo      foundation.Option[string] `json:"excInfo"`
}

// LogCounts holds log entry counts by level.
type LogCounts struct {
	Debug   int `json:"DEBUG"`
	Info    int `json:"INFO"`
	Warning int `json:"WARNING"`
	Error   int `json:"ERROR"`
	Alert   int `json:"ALERT"`
}

// PackageInfo is a registry package summary.
type PackageInfo struct {
	Identifier    string                    `json:"identifier"`
	Name          string                    `json:"name"`
	Publisher     string                    `json:"publisher"`
	Version       foundation.Option[string] `json:"version"`
	LatestVersion foundation.Option[string] `json:"latestVersion"`
	Description   foundation.Option[string] `json:"description"`
	Summary       foundation.Option[string] `json:"summary"`
	Homepage      foundation.Option[string] `json:"homepage"`
	Repository    foundation.Option[string] `json:"repository"`
	License       foundation.Option[string] `json:"license"`
	Installed     bool                      `json:"installed"`
	InstalledIn   []string                  `json:"installedIn"`
	HasUpdate     bool                      `json:"hasUpdate"`
	Downloads     foundation.Option[int]    `json:"downloads"`
	VersionCount  foundation.Option[int]    `json:"versionCount"`
	Keywords      []string                  `json:"keywords,omitempty"`
}

// PackageVersion is one released version of a package.
type PackageVersion struct {
	Version         string                    `json:"version"`
	ReleasedAt      foundation.Option[string] `json:"releasedAt"`
	RequiresAtopile foundation.Option[string] `json:"requiresAtopile"`
	Size            foundation.Option[int]    `json:"size"`
}

// PackageDetails is the expanded view of a single selected package.
type PackageDetails struct {
	Identifier         string                    `json:"identifier"`
	Name               string                    `json:"name"`
	Publisher          string                    `json:"publisher"`
	Version            string                    `json:"version"`
	Summary            foundation.Option[string] `json:"summary"`
	Description        foundation.Option[string] `json:"description"`
	Homepage           foundation.Option[string] `json:"homepage"`
	Repository         foundation.Option[string] `json:"repository"`
	License            foundation.Option[string] `json:"license"`
	Downloads          foundation.Option[int]    `json:"downloads"`
	DownloadsThisWeek  foundation.Option[int]    `json:"downloadsThisWeek"`
	DownloadsThisMonth foundation.Option[int]    `json:"downloadsThisMonth"`
	Versions           []PackageVersion          `json:"versions"`
	VersionCount       int                       `json:"versionCount"`
	Installed          bool                      `json:"installed"`
	InstalledVersion   foundation.Option[string] `json:"installedVersion"`
	InstalledIn        []string                  `json:"installedIn"`
}

// BOMParameter is a named component parameter in the bill of materials.
type BOMParameter struct {
	Name  string                    `json:"name"`
	Value string                    `json:"value"`
	Unit  foundation.Option[string] `json:"unit"`
}

// BOMUsage records where a BOM component is used in the design.
type BOMUsage struct {
	Address    string `json:"address"`
	Designator string `json:"designator"`
}

// BOMComponent is one line of the bill of materials.
type BOMComponent struct {
	ID           string                     `json:"id"`
	LCSC         foundation.Option[string]  `json:"lcsc"`
	Manufacturer foundation.Option[string]  `json:"manufacturer"`
	MPN          foundation.Option[string]  `json:"mpn"`
	Type         string                     `json:"type"`
	Value        string                     `json:"value"`
	Package      string                     `json:"package"`
	Description  foundation.Option[string]  `json:"description"`
	Quantity     int                        `json:"quantity"`
	UnitCost     foundation.Option[float64] `json:"unitCost"`
	Stock        foundation.Option[int]     `json:"stock"`
	IsBasic      foundation.Option[bool]    `json:"isBasic"`
	IsPreferred  foundation.Option[bool]    `json:"isPreferred"`
	Source       string                     `json:"source"`
	Parameters   []BOMParameter             `json:"parameters"`
	Usages       []BOMUsage                 `json:"usages"`
}

// BOMData is the bill of materials for a build target.
type BOMData struct {
	Version    string         `json:"version"`
	Components []BOMComponent `json:"components"`
}

// Variable is a solved design variable with its spec comparison.
type Variable struct {
	Name            string                    `json:"name"`
	Spec            foundation.Option[string] `json:"spec"`
	SpecTolerance   foundation.Option[string] `json:"specTolerance"`
	Actual          foundation.Option[string] `json:"actual"`
	ActualTolerance foundation.Option[string] `json:"actualTolerance"`
	Unit            foundation.Option[string] `json:"unit"`
	Type            string                    `json:"type"`
	MeetsSpec       foundation.Option[bool]   `json:"meetsSpec"`
	Source          foundation.Option[string] `json:"source"`
}

// VariableNode is a node in the variable tree.
type VariableNode struct {
	Name      string                    `json:"name"`
	Type      string                    `json:"type"`
	Path      string                    `json:"path"`
	TypeName  foundation.Option[string] `json:"typeName"`
	Variables []Variable                `json:"variables,omitempty"`
	Children  []VariableNode            `json:"children,omitempty"`
}

// VariablesData is the variable tree for a build target.
type VariablesData struct {
	Version string         `json:"version"`
	Nodes   []VariableNode `json:"nodes"`
}

// ModuleDefinition is a module/interface/component declared in a project.
type ModuleDefinition struct {
	Name      string                    `json:"name"`
	Type      string                    `json:"type"`
	File      string                    `json:"file"`
	Entry     string                    `json:"entry"`
	Line      foundation.Option[int]    `json:"line"`
	SuperType foundation.Option[string] `json:"superType"`
}

// FileTreeNode is a node in a project's file tree.
type FileTreeNode struct {
	Name      string                    `json:"name"`
	Path      string                    `json:"path"`
	Type      string                    `json:"type"`
	Extension foundation.Option[string] `json:"extension"`
	Children  []FileTreeNode            `json:"children,omitempty"`
}

// StdLibChild is a child item of a standard library entry.
type StdLibChild struct {
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	ItemType string        `json:"itemType"`
	Children []StdLibChild `json:"children,omitempty"`
}

// StdLibItem is a standard library entry.
type StdLibItem struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	Type        string                    `json:"type"`
	Description string                    `json:"description"`
	Usage       foundation.Option[string] `json:"usage"`
	Children    []StdLibChild             `json:"children,omitempty"`
	Parameters  []map[string]any          `json:"parameters,omitempty"`
}

// DetectedInstallation is a locally detected atopile toolchain install.
type DetectedInstallation struct {
	Path    string                    `json:"path"`
	Version foundation.Option[string] `json:"version"`
	Source  string                    `json:"source"`
}

// InstallProgress reports toolchain install progress.
type InstallProgress struct {
	Message string                     `json:"message"`
	Percent foundation.Option[float64] `json:"percent"`
}

// AtopileConfig is the atopile toolchain configuration and install state.
type AtopileConfig struct {
	CurrentVersion        string                             `json:"currentVersion"`
	Source                AtopileSource                      `json:"source"`
	LocalPath             foundation.Option[string]          `json:"localPath"`
	Branch                foundation.Option[string]          `json:"branch"`
	AvailableVersions     []string                           `json:"availableVersions"`
	AvailableBranches     []string                           `json:"availableBranches"`
	DetectedInstallations []DetectedInstallation             `json:"detectedInstallations"`
	IsInstalling          bool                               `json:"isInstalling"`
	InstallProgress       foundation.Option[InstallProgress] `json:"installProgress"`
	Error                 foundation.Option[string]          `json:"error"`
}
