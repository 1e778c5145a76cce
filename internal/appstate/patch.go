package appstate

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"

	"github.com/atopile/dashsync/internal/foundation"
)

// Patch is a typed partial AppState: one optional slot per document field.
// A nil slot leaves the field untouched; a non-nil slot replaces the whole
// field (shallow per-field merge, with nested sub-objects such as Atopile
// replaced as a unit). Decoding a backend state broadcast into a Patch keeps
// absent keys nil, so merge semantics are checked at compile time instead of
// relying on structural spread.
type Patch struct {
	// Seq is the backend's monotonic version stamp. Zero means unstamped;
	// stamped patches older than the last applied one are dropped.
	Seq uint64 `json:"seq,omitempty"`

	IsConnected *bool `json:"isConnected,omitempty"`

	Projects            *[]Project                 `json:"projects,omitempty"`
	IsLoadingProjects   *bool                      `json:"isLoadingProjects,omitempty"`
	ProjectsError       *foundation.Option[string] `json:"projectsError,omitempty"`
	SelectedProjectRoot *foundation.Option[string] `json:"selectedProjectRoot,omitempty"`
	SelectedTargetNames *[]string                  `json:"selectedTargetNames,omitempty"`

	Builds       *[]Build `json:"builds,omitempty"`
	QueuedBuilds *[]Build `json:"queuedBuilds,omitempty"`

	Packages             *[]PackageInfo             `json:"packages,omitempty"`
	IsLoadingPackages    *bool                      `json:"isLoadingPackages,omitempty"`
	PackagesError        *foundation.Option[string] `json:"packagesError,omitempty"`
	InstallingPackageIDs *[]string                  `json:"installingPackageIds,omitempty"`
	InstallError         *foundation.Option[string] `json:"installError,omitempty"`

	StdlibItems     *[]StdLibItem `json:"stdlibItems,omitempty"`
	IsLoadingStdlib *bool         `json:"isLoadingStdlib,omitempty"`

	BOMData      *foundation.Option[BOMData] `json:"bomData,omitempty"`
	IsLoadingBOM *bool                       `json:"isLoadingBom,omitempty"`
	BOMError     *foundation.Option[string]  `json:"bomError,omitempty"`

	SelectedPackageDetails  *foundation.Option[PackageDetails] `json:"selectedPackageDetails,omitempty"`
	IsLoadingPackageDetails *bool                              `json:"isLoadingPackageDetails,omitempty"`
	PackageDetailsError     *foundation.Option[string]         `json:"packageDetailsError,omitempty"`

	SelectedBuildName   *foundation.Option[string] `json:"selectedBuildName,omitempty"`
	SelectedBuildID     *foundation.Option[string] `json:"selectedBuildId,omitempty"`
	SelectedProjectName *foundation.Option[string] `json:"selectedProjectName,omitempty"`
	SelectedStageIDs    *[]string                  `json:"selectedStageIds,omitempty"`
	LogEntries          *[]LogEntry                `json:"logEntries,omitempty"`
	IsLoadingLogs       *bool                      `json:"isLoadingLogs,omitempty"`
	LogFile             *foundation.Option[string] `json:"logFile,omitempty"`

	EnabledLogLevels *[]LogLevel `json:"enabledLogLevels,omitempty"`
	LogSearchQuery   *string     `json:"logSearchQuery,omitempty"`
	LogTimestampMode *string     `json:"logTimestampMode,omitempty"`
	LogAutoScroll    *bool       `json:"logAutoScroll,omitempty"`

	LogCounts     *foundation.Option[LogCounts] `json:"logCounts,omitempty"`
	LogTotalCount *foundation.Option[int]       `json:"logTotalCount,omitempty"`
	LogHasMore    *foundation.Option[bool]      `json:"logHasMore,omitempty"`

	ExpandedTargets *[]string `json:"expandedTargets,omitempty"`

	Version *string `json:"version,omitempty"`
	LogoURI *string `json:"logoUri,omitempty"`

	Atopile *AtopileConfig `json:"atopile,omitempty"`

	Problems          *[]Problem     `json:"problems,omitempty"`
	IsLoadingProblems *bool          `json:"isLoadingProblems,omitempty"`
	ProblemFilter     *ProblemFilter `json:"problemFilter,omitempty"`
	DeveloperMode     *bool          `json:"developerMode,omitempty"`

	ProjectModules   *map[string][]ModuleDefinition `json:"projectModules,omitempty"`
	IsLoadingModules *bool                          `json:"isLoadingModules,omitempty"`
	ProjectFiles     *map[string][]FileTreeNode     `json:"projectFiles,omitempty"`
	IsLoadingFiles   *bool                          `json:"isLoadingFiles,omitempty"`

	CurrentVariablesData *foundation.Option[VariablesData] `json:"currentVariablesData,omitempty"`
	IsLoadingVariables   *bool                             `json:"isLoadingVariables,omitempty"`
	VariablesError       *foundation.Option[string]        `json:"variablesError,omitempty"`

	Requirements          *[]Requirement `json:"requirements,omitempty"`
	IsLoadingRequirements *bool          `json:"isLoadingRequirements,omitempty"`
	SelectedTestIDs       *[]string      `json:"selectedTestIds,omitempty"`

	OpenFile       *foundation.Option[string] `json:"openFile,omitempty"`
	OpenFileLine   *foundation.Option[int]    `json:"openFileLine,omitempty"`
	OpenFileColumn *foundation.Option[int]    `json:"openFileColumn,omitempty"`
	OpenLayout     *foundation.Option[string] `json:"openLayout,omitempty"`
	OpenKicad      *foundation.Option[string] `json:"openKicad,omitempty"`
	Open3D         *foundation.Option[string] `json:"open3d,omitempty"`
}

// patchFields avoids recursing into UnmarshalJSON during the inner decode.
type patchFields Patch

var jsonNull = []byte("null")

// UnmarshalJSON decodes a broadcast while keeping an explicit null distinct
// from an absent key. The stdlib decoder nils a settable pointer on null
// before the slot's own UnmarshalJSON can run, so present-null keys are
// restored to allocated zero slots (None for Option fields) and Apply treats
// them as writes.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var fields patchFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return err
	}
	*p = Patch(fields)

	v := reflect.ValueOf(p).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if key == "" || key == "-" {
			continue
		}
		raw, ok := present[key]
		if !ok || !bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
			continue
		}
		slot := v.Field(i)
		if slot.Kind() == reflect.Pointer && slot.IsNil() {
			slot.Set(reflect.New(slot.Type().Elem()))
		}
	}
	return nil
}

// Apply merges the patch into the document field by field. Applying the same
// patch twice yields the same document (idempotent).
func (p *Patch) Apply(s *AppState) {
	if p.IsConnected != nil {
		s.IsConnected = *p.IsConnected
	}

	if p.Projects != nil {
		s.Projects = *p.Projects
	}
	if p.IsLoadingProjects != nil {
		s.IsLoadingProjects = *p.IsLoadingProjects
	}
	if p.ProjectsError != nil {
		s.ProjectsError = *p.ProjectsError
	}
	if p.SelectedProjectRoot != nil {
		s.SelectedProjectRoot = *p.SelectedProjectRoot
	}
	if p.SelectedTargetNames != nil {
		s.SelectedTargetNames = *p.SelectedTargetNames
	}

	if p.Builds != nil {
		s.Builds = *p.Builds
	}
	if p.QueuedBuilds != nil {
		s.QueuedBuilds = *p.QueuedBuilds
	}

	if p.Packages != nil {
		s.Packages = *p.Packages
	}
	if p.IsLoadingPackages != nil {
		s.IsLoadingPackages = *p.IsLoadingPackages
	}
	if p.PackagesError != nil {
		s.PackagesError = *p.PackagesError
	}
	if p.InstallingPackageIDs != nil {
		s.InstallingPackageIDs = *p.InstallingPackageIDs
	}
	if p.InstallError != nil {
		s.InstallError = *p.InstallError
	}

	if p.StdlibItems != nil {
		s.StdlibItems = *p.StdlibItems
	}
	if p.IsLoadingStdlib != nil {
		s.IsLoadingStdlib = *p.IsLoadingStdlib
	}

	if p.BOMData != nil {
		s.BOMData = *p.BOMData
	}
	if p.IsLoadingBOM != nil {
		s.IsLoadingBOM = *p.IsLoadingBOM
	}
	if p.BOMError != nil {
		s.BOMError = *p.BOMError
	}

	if p.SelectedPackageDetails != nil {
		s.SelectedPackageDetails = *p.SelectedPackageDetails
	}
	if p.IsLoadingPackageDetails != nil {
		s.IsLoadingPackageDetails = *p.IsLoadingPackageDetails
	}
	if p.PackageDetailsError != nil {
		s.PackageDetailsError = *p.PackageDetailsError
	}

	if p.SelectedBuildName != nil {
		s.SelectedBuildName = *p.SelectedBuildName
	}
	if p.SelectedBuildID != nil {
		s.SelectedBuildID = *p.SelectedBuildID
	}
	if p.SelectedProjectName != nil {
		s.SelectedProjectName = *p.SelectedProjectName
	}
	if p.SelectedStageIDs != nil {
		s.SelectedStageIDs = *p.SelectedStageIDs
	}
	if p.LogEntries != nil {
		s.LogEntries = *p.LogEntries
	}
	if p.IsLoadingLogs != nil {
		s.IsLoadingLogs = *p.IsLoadingLogs
	}
	if p.LogFile != nil {
		s.LogFile = *p.LogFile
	}

	if p.EnabledLogLevels != nil {
		s.EnabledLogLevels = *p.EnabledLogLevels
	}
	if p.LogSearchQuery != nil {
		s.LogSearchQuery = *p.LogSearchQuery
	}
	if p.LogTimestampMode != nil {
		s.LogTimestampMode = *p.LogTimestampMode
	}
	if p.LogAutoScroll != nil {
		s.LogAutoScroll = *p.LogAutoScroll
	}

	if p.LogCounts != nil {
		s.LogCounts = *p.LogCounts
	}
	if p.LogTotalCount != nil {
		s.LogTotalCount = *p.LogTotalCount
	}
	if p.LogHasMore != nil {
		s.LogHasMore = *p.LogHasMore
	}

	if p.ExpandedTargets != nil {
		s.ExpandedTargets = *p.ExpandedTargets
	}

	if p.Version != nil {
		s.Version = *p.Version
	}
	if p.LogoURI != nil {
		s.LogoURI = *p.LogoURI
	}

	if p.Atopile != nil {
		s.Atopile = *p.Atopile
	}

	if p.Problems != nil {
		s.Problems = *p.Problems
	}
	if p.IsLoadingProblems != nil {
		s.IsLoadingProblems = *p.IsLoadingProblems
	}
	if p.ProblemFilter != nil {
		s.ProblemFilter = *p.ProblemFilter
	}
	if p.DeveloperMode != nil {
		s.DeveloperMode = *p.DeveloperMode
	}

	if p.ProjectModules != nil {
		s.ProjectModules = *p.ProjectModules
	}
	if p.IsLoadingModules != nil {
		s.IsLoadingModules = *p.IsLoadingModules
	}
	if p.ProjectFiles != nil {
		s.ProjectFiles = *p.ProjectFiles
	}
	if p.IsLoadingFiles != nil {
		s.IsLoadingFiles = *p.IsLoadingFiles
	}

	if p.CurrentVariablesData != nil {
		s.CurrentVariablesData = *p.CurrentVariablesData
	}
	if p.IsLoadingVariables != nil {
		s.IsLoadingVariables = *p.IsLoadingVariables
	}
	if p.VariablesError != nil {
		s.VariablesError = *p.VariablesError
	}

	if p.Requirements != nil {
		s.Requirements = *p.Requirements
	}
	if p.IsLoadingRequirements != nil {
		s.IsLoadingRequirements = *p.IsLoadingRequirements
	}
	if p.SelectedTestIDs != nil {
		s.SelectedTestIDs = *p.SelectedTestIDs
	}

	if p.OpenFile != nil {
		s.OpenFile = *p.OpenFile
	}
	if p.OpenFileLine != nil {
		s.OpenFileLine = *p.OpenFileLine
	}
	if p.OpenFileColumn != nil {
		s.OpenFileColumn = *p.OpenFileColumn
	}
	if p.OpenLayout != nil {
		s.OpenLayout = *p.OpenLayout
	}
	if p.OpenKicad != nil {
		s.OpenKicad = *p.OpenKicad
	}
	if p.Open3D != nil {
		s.Open3D = *p.Open3D
	}
}

// TransientErrorUpdate pairs a transient error field name with the value a
// patch sets it to. The store uses these to re-arm expiry timers.
type TransientErrorUpdate struct {
	Field string
	Value foundation.Option[string]
}

// Transient error field names. These are the fields whose values self-clear
// after the configured expiry when set by a bulk patch or a setter.
const (
	FieldProjectsError       = "projectsError"
	FieldPackagesError       = "packagesError"
	FieldInstallError        = "installError"
	FieldBOMError            = "bomError"
	FieldPackageDetailsError = "packageDetailsError"
	FieldVariablesError      = "variablesError"
	FieldAtopileError        = "atopile.error"
)

// TransientErrors lists the transient error fields this patch carries,
// in declaration order.
func (p *Patch) TransientErrors() []TransientErrorUpdate {
	var out []TransientErrorUpdate
	if p.ProjectsError != nil {
		out = append(out, TransientErrorUpdate{FieldProjectsError, *p.ProjectsError})
	}
	if p.PackagesError != nil {
		out = append(out, TransientErrorUpdate{FieldPackagesError, *p.PackagesError})
	}
	if p.InstallError != nil {
		out = append(out, TransientErrorUpdate{FieldInstallError, *p.InstallError})
	}
	if p.BOMError != nil {
		out = append(out, TransientErrorUpdate{FieldBOMError, *p.BOMError})
	}
	if p.PackageDetailsError != nil {
		out = append(out, TransientErrorUpdate{FieldPackageDetailsError, *p.PackageDetailsError})
	}
	if p.VariablesError != nil {
		out = append(out, TransientErrorUpdate{FieldVariablesError, *p.VariablesError})
	}
	if p.Atopile != nil {
		out = append(out, TransientErrorUpdate{FieldAtopileError, p.Atopile.Error})
	}
	return out
}
