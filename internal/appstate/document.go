package appstate

import "github.com/atopile/dashsync/internal/foundation"

// AppState is the single in-memory document holding all state mirrored from
// the backend for one session. It is owned exclusively by the store; readers
// see snapshots, never the live document.
type AppState struct {
	// Connection
	IsConnected bool `json:"isConnected"`

	// Projects
	Projects            []Project                 `json:"projects"`
	IsLoadingProjects   bool                      `json:"isLoadingProjects"`
	ProjectsError       foundation.Option[string] `json:"projectsError"`
	SelectedProjectRoot foundation.Option[string] `json:"selectedProjectRoot"`
	SelectedTargetNames []string                  `json:"selectedTargetNames"`

	// Builds: live/queued records. A live record's status takes precedence
	// over the matching target's lastBuild snapshot.
	Builds       []Build `json:"builds"`
	QueuedBuilds []Build `json:"queuedBuilds"`

	// Packages
	Packages             []PackageInfo             `json:"packages"`
	IsLoadingPackages    bool                      `json:"isLoadingPackages"`
	PackagesError        foundation.Option[string] `json:"packagesError"`
	InstallingPackageIDs []string                  `json:"installingPackageIds"`
	InstallError         foundation.Option[string] `json:"installError"`

	// Standard library
	StdlibItems     []StdLibItem `json:"stdlibItems"`
	IsLoadingStdlib bool         `json:"isLoadingStdlib"`

	// BOM
	BOMData      foundation.Option[BOMData] `json:"bomData"`
	IsLoadingBOM bool                       `json:"isLoadingBom"`
	BOMError     foundation.Option[string]  `json:"bomError"`

	// Package details
	SelectedPackageDetails  foundation.Option[PackageDetails] `json:"selectedPackageDetails"`
	IsLoadingPackageDetails bool                              `json:"isLoadingPackageDetails"`
	PackageDetailsError     foundation.Option[string]         `json:"packageDetailsError"`

	// Build/log selection
	SelectedBuildName   foundation.Option[string] `json:"selectedBuildName"`
	SelectedBuildID     foundation.Option[string] `json:"selectedBuildId"`
	SelectedProjectName foundation.Option[string] `json:"selectedProjectName"`
	SelectedStageIDs    []string                  `json:"selectedStageIds"`
	LogEntries          []LogEntry                `json:"logEntries"`
	IsLoadingLogs       bool                      `json:"isLoadingLogs"`
	LogFile             foundation.Option[string] `json:"logFile"`

	// Log viewer
	EnabledLogLevels []LogLevel `json:"enabledLogLevels"`
	LogSearchQuery   string     `json:"logSearchQuery"`
	LogTimestampMode string     `json:"logTimestampMode"`
	LogAutoScroll    bool       `json:"logAutoScroll"`

	// Log counts
	LogCounts     foundation.Option[LogCounts] `json:"logCounts"`
	LogTotalCount foundation.Option[int]       `json:"logTotalCount"`
	LogHasMore    foundation.Option[bool]      `json:"logHasMore"`

	// Sidebar
	ExpandedTargets []string `json:"expandedTargets"`

	// Extension info
	Version string `json:"version"`
	LogoURI string `json:"logoUri"`

	// Atopile toolchain
	Atopile AtopileConfig `json:"atopile"`

	// Problems
	Problems          []Problem     `json:"problems"`
	IsLoadingProblems bool          `json:"isLoadingProblems"`
	ProblemFilter     ProblemFilter `json:"problemFilter"`
	DeveloperMode     bool          `json:"developerMode"`

	// Per-project module and file trees, keyed by project root.
	ProjectModules   map[string][]ModuleDefinition `json:"projectModules"`
	IsLoadingModules bool                          `json:"isLoadingModules"`
	ProjectFiles     map[string][]FileTreeNode     `json:"projectFiles"`
	IsLoadingFiles   bool                          `json:"isLoadingFiles"`

	// Variables
	CurrentVariablesData foundation.Option[VariablesData] `json:"currentVariablesData"`
	IsLoadingVariables   bool                             `json:"isLoadingVariables"`
	VariablesError       foundation.Option[string]        `json:"variablesError"`

	// Requirements (simulation spec-compliance)
	Requirements          []Requirement `json:"requirements"`
	IsLoadingRequirements bool          `json:"isLoadingRequirements"`
	SelectedTestIDs       []string      `json:"selectedTestIds"`

	// One-shot open signals, cleared after the corresponding event is emitted.
	OpenFile       foundation.Option[string] `json:"openFile"`
	OpenFileLine   foundation.Option[int]    `json:"openFileLine"`
	OpenFileColumn foundation.Option[int]    `json:"openFileColumn"`
	OpenLayout     foundation.Option[string] `json:"openLayout"`
	OpenKicad      foundation.Option[string] `json:"openKicad"`
	Open3D         foundation.Option[string] `json:"open3d"`
}

// TimestampAbsolute and TimestampDelta are the log viewer timestamp modes.
const (
	TimestampAbsolute = "absolute"
	TimestampDelta    = "delta"
)

// New returns an AppState with the fixed initial shape used at session start.
func New() *AppState {
	return &AppState{
		Projects:             []Project{},
		SelectedTargetNames:  []string{},
		Builds:               []Build{},
		QueuedBuilds:         []Build{},
		Packages:             []PackageInfo{},
		InstallingPackageIDs: []string{},
		StdlibItems:          []StdLibItem{},
		SelectedStageIDs:     []string{},
		LogEntries:           []LogEntry{},
		EnabledLogLevels:     []LogLevel{LogInfo, LogWarning, LogError, LogAlert},
		LogTimestampMode:     TimestampAbsolute,
		LogAutoScroll:        true,
		ExpandedTargets:      []string{},
		Version:              "dev",
		Atopile: AtopileConfig{
			Source:                SourceRelease,
			AvailableVersions:     []string{},
			AvailableBranches:     []string{},
			DetectedInstallations: []DetectedInstallation{},
		},
		Problems: []Problem{},
		ProblemFilter: ProblemFilter{
			Levels:     []ProblemLevel{ProblemError, ProblemWarning},
			BuildNames: []string{},
			StageIDs:   []string{},
		},
		ProjectModules:  map[string][]ModuleDefinition{},
		ProjectFiles:    map[string][]FileTreeNode{},
		Requirements:    []Requirement{},
		SelectedTestIDs: []string{},
	}
}
