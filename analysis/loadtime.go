package analysis

import "honnef.co/go/timingview/mem"

type PackageEventType uint8

const (
	PackageEventCreateLinker PackageEventType = iota
	PackageEventFinishLinker
	PackageEventStartImportPackages
	PackageEventSetupImports
	PackageEventSetupExports
	PackageEventProcessImportsAndExports
	PackageEventExportsDone
	PackageEventPostLoadWait
	PackageEventStartPostLoad
	PackageEventTick
	PackageEventFinish
	PackageEventDeferredPostLoad
	PackageEventNone
)

var packageEventNames = [...]string{
	PackageEventCreateLinker:             "CreateLinker",
	PackageEventFinishLinker:             "FinishLinker",
	PackageEventStartImportPackages:      "StartImportPackages",
	PackageEventSetupImports:             "SetupImports",
	PackageEventSetupExports:             "SetupExports",
	PackageEventProcessImportsAndExports: "ProcessImportsAndExports",
	PackageEventExportsDone:              "ExportsDone",
	PackageEventPostLoadWait:             "PostLoadWait",
	PackageEventStartPostLoad:            "StartPostLoad",
	PackageEventTick:                     "Tick",
	PackageEventFinish:                   "Finish",
	PackageEventDeferredPostLoad:         "DeferredPostLoad",
	PackageEventNone:                     "None",
}

func (t PackageEventType) String() string {
	if int(t) < len(packageEventNames) {
		return packageEventNames[t]
	}
	return ""
}

// ParsePackageEventType is the inverse of PackageEventType.String.
func ParsePackageEventType(s string) (PackageEventType, bool) {
	for i, name := range packageEventNames {
		if name == s {
			return PackageEventType(i), true
		}
	}
	return PackageEventNone, false
}

type ExportEventType uint8

const (
	ExportEventCreate ExportEventType = iota
	ExportEventSerialize
	ExportEventPostLoad
	ExportEventNone
)

var exportEventNames = [...]string{
	ExportEventCreate:    "Create",
	ExportEventSerialize: "Serialize",
	ExportEventPostLoad:  "PostLoad",
	ExportEventNone:      "None",
}

func (t ExportEventType) String() string {
	if int(t) < len(exportEventNames) {
		return exportEventNames[t]
	}
	return ""
}

func ParseExportEventType(s string) (ExportEventType, bool) {
	for i, name := range exportEventNames {
		if name == s {
			return ExportEventType(i), true
		}
	}
	return ExportEventNone, false
}

// NoID marks an absent package or export reference.
const NoID int32 = -1

type PackageInfo struct {
	Name string `json:"name"`
	Size uint64 `json:"size"`
}

type ExportInfo struct {
	ClassName string `json:"class"`
	Package   int32  `json:"package"`
}

// LoadEvent references packages and exports by their stable index in the provider.
type LoadEvent struct {
	Package          int32
	Export           int32
	PackageEventType PackageEventType
	ExportEventType  ExportEventType
}

type LoadTimeProvider interface {
	MainThreadTimeline() EventTimeline[LoadEvent]
	AsyncThreadTimeline() EventTimeline[LoadEvent]
	Package(id int32) (PackageInfo, bool)
	Export(id int32) (ExportInfo, bool)
}

type LoadTimeStore struct {
	MainThread  *Timeline[LoadEvent]
	AsyncThread *Timeline[LoadEvent]

	packages mem.Arena[PackageInfo]
	exports  mem.Arena[ExportInfo]
}

var _ LoadTimeProvider = (*LoadTimeStore)(nil)

func NewLoadTimeStore() *LoadTimeStore {
	return &LoadTimeStore{
		MainThread:  NewTimeline[LoadEvent](),
		AsyncThread: NewTimeline[LoadEvent](),
	}
}

func (s *LoadTimeStore) AddPackage(p PackageInfo) int32 {
	return int32(s.packages.Append(p))
}

func (s *LoadTimeStore) AddExport(e ExportInfo) int32 {
	return int32(s.exports.Append(e))
}

func (s *LoadTimeStore) MainThreadTimeline() EventTimeline[LoadEvent]  { return s.MainThread }
func (s *LoadTimeStore) AsyncThreadTimeline() EventTimeline[LoadEvent] { return s.AsyncThread }

func (s *LoadTimeStore) Package(id int32) (PackageInfo, bool) {
	if id < 0 || int(id) >= s.packages.Len() {
		return PackageInfo{}, false
	}
	return s.packages.Get(int(id)), true
}

func (s *LoadTimeStore) Export(id int32) (ExportInfo, bool) {
	if id < 0 || int(id) >= s.exports.Len() {
		return ExportInfo{}, false
	}
	return s.exports.Get(int(id)), true
}
