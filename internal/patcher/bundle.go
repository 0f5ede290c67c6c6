package patcher

import (
	"path"
)

const (
	// BackupName is the file name of the pre-patch metadata copy, next to Info.plist.
	BackupName = "Info.plist.bak"

	// InstalledIconName is the default file name of the installed replacement icon. It
	// is chosen so it does not collide with any icon a bundle ships with.
	InstalledIconName = "AppIcon_AA.png"
)

// BundleRef identifies one application bundle by its metadata file.
type BundleRef struct {
	MetadataPath string // MetadataPath is the absolute path to the bundle's Info.plist.
}

// Dir returns the bundle directory.
func (b BundleRef) Dir() string {
	return path.Dir(b.MetadataPath)
}

// BackupPath returns the path of the metadata backup.
func (b BundleRef) BackupPath() string {
	return path.Join(b.Dir(), BackupName)
}

// IconPath returns the path of an icon file named name inside the bundle.
func (b BundleRef) IconPath(name string) string {
	return path.Join(b.Dir(), name)
}
