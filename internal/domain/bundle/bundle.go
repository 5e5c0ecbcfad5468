package bundle

import (
	"path/filepath"
	"strings"
)

const (
	// Extension is the suffix of an application bundle directory.
	Extension = ".app"
	// ArchiveExtension is the suffix of the distributable disk image.
	ArchiveExtension = ".dmg"

	// ContentsFolder is the root of everything inside the bundle.
	ContentsFolder = "Contents"
	// MacOSFolder holds the launcher executable.
	MacOSFolder = "MacOS"
	// ResourcesFolder receives the copied environment and the icon.
	ResourcesFolder = "Resources"
	// FrameworksFolder is reserved for auxiliary libraries.
	FrameworksFolder = "Frameworks"
	// ManifestFilename is the bundle metadata file inside ContentsFolder.
	ManifestFilename = "Info.plist"
)

// Folders lists the subfolders of ContentsFolder created for every bundle.
func Folders() []string {
	return []string{MacOSFolder, ResourcesFolder, FrameworksFolder}
}

// Bundle is an application bundle directory on disk.
type Bundle struct {
	// Path is the absolute path to the <name>.app directory.
	Path string
}

// New returns a Bundle rooted at path.
func New(path string) *Bundle {
	return &Bundle{Path: filepath.Clean(path)}
}

// PathFor returns the bundle location for the application name inside dir.
func PathFor(name, dir string) string {
	return filepath.Join(dir, name+Extension)
}

// NameFromPath derives the application name from the bundle directory basename.
// Only a trailing ".app" is removed.
func NameFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(filepath.Clean(path)), Extension)
}

// Name returns the application name encoded in the bundle directory.
func (b *Bundle) Name() string {
	return NameFromPath(b.Path)
}

// ContentsDir returns <bundle>/Contents.
func (b *Bundle) ContentsDir() string {
	return filepath.Join(b.Path, ContentsFolder)
}

// MacOSDir returns <bundle>/Contents/MacOS.
func (b *Bundle) MacOSDir() string {
	return filepath.Join(b.ContentsDir(), MacOSFolder)
}

// ResourcesDir returns <bundle>/Contents/Resources.
func (b *Bundle) ResourcesDir() string {
	return filepath.Join(b.ContentsDir(), ResourcesFolder)
}

// FrameworksDir returns <bundle>/Contents/Frameworks.
func (b *Bundle) FrameworksDir() string {
	return filepath.Join(b.ContentsDir(), FrameworksFolder)
}

// ManifestPath returns <bundle>/Contents/Info.plist.
func (b *Bundle) ManifestPath() string {
	return filepath.Join(b.ContentsDir(), ManifestFilename)
}

// ExecutablePath returns the launcher location <bundle>/Contents/MacOS/<name>.
func (b *Bundle) ExecutablePath() string {
	return filepath.Join(b.MacOSDir(), b.Name())
}

// ContentsPath resolves a path given relative to Contents.
func (b *Bundle) ContentsPath(rel string) string {
	return filepath.Join(b.ContentsDir(), filepath.FromSlash(rel))
}

// ArchivePath returns the disk image path that sits next to the bundle.
func (b *Bundle) ArchivePath() string {
	return strings.TrimSuffix(b.Path, Extension) + ArchiveExtension
}
