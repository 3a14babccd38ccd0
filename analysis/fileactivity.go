package analysis

import "fmt"

type FileActivityType uint8

const (
	FileActivityOpen FileActivityType = iota
	FileActivityClose
	FileActivityRead
	FileActivityWrite
	NumFileActivityTypes
)

var fileActivityNames = [...]string{"Open", "Close", "Read", "Write"}

func (t FileActivityType) String() string {
	if t < NumFileActivityTypes {
		return fileActivityNames[t]
	}
	return fmt.Sprintf("FileActivityType(%d)", t)
}

func ParseFileActivityType(s string) (FileActivityType, bool) {
	for i, name := range fileActivityNames {
		if name == s {
			return FileActivityType(i), true
		}
	}
	return 0, false
}

type FileActivity struct {
	Type   FileActivityType
	Failed bool
	Offset uint64
	Size   uint64
}

type FileInfo struct {
	ID   uint32
	Path string
}

type FileActivityProvider interface {
	// EnumerateFileActivity calls fn once per file, in order of file ID.
	EnumerateFileActivity(fn func(f FileInfo, tl EventTimeline[FileActivity]) bool)
	File(id uint32) (FileInfo, bool)
	Serial() uint64
}

type FileActivityStore struct {
	files     []FileInfo
	timelines []*Timeline[FileActivity]
	serial    uint64
}

var _ FileActivityProvider = (*FileActivityStore)(nil)

func (s *FileActivityStore) AddFile(path string) uint32 {
	id := uint32(len(s.files))
	s.files = append(s.files, FileInfo{ID: id, Path: path})
	s.timelines = append(s.timelines, NewTimeline[FileActivity]())
	s.serial++
	return id
}

// AddActivity records an activity on file. It reports false for unknown files.
func (s *FileActivityStore) AddActivity(file uint32, start, end float64, act FileActivity) bool {
	if int(file) >= len(s.timelines) {
		return false
	}
	s.timelines[file].AppendPacked(start, end, act)
	s.serial++
	return true
}

func (s *FileActivityStore) EnumerateFileActivity(fn func(f FileInfo, tl EventTimeline[FileActivity]) bool) {
	for i, f := range s.files {
		if !fn(f, s.timelines[i]) {
			return
		}
	}
}

func (s *FileActivityStore) File(id uint32) (FileInfo, bool) {
	if int(id) >= len(s.files) {
		return FileInfo{}, false
	}
	return s.files[id], true
}

func (s *FileActivityStore) Serial() uint64 {
	return s.serial
}
