package operator

import (
	"fmt"
	"path"

	"github.com/hashicorp/go-version"
	"github.com/spf13/afero"

	"github.com/crissyfield/supericons/internal/plist"
)

// SystemVersionPath is the property list carrying the running OS version.
const SystemVersionPath = "/System/Library/CoreServices/SystemVersion.plist"

// Helpers holds the resolved paths of the helper binaries.
type Helpers struct {
	Copy   string // Copy is the `cp` binary.
	Move   string // Move is the `mv` binary.
	Remove string // Remove is the `rm` binary.
}

// legacyBoundary is the first iOS version served by the modern helper builds.
var legacyBoundary = version.Must(version.NewVersion("16.0"))

// ResolveHelpers picks the helper binaries for a device running osVersion. With an empty
// dir the system binaries found on PATH are used. With a helper directory, devices older
// than iOS 16 get the "-15" builds of cp and mv. An empty osVersion means a modern device.
func ResolveHelpers(dir string, osVersion string) (Helpers, error) {
	if dir == "" {
		return Helpers{Copy: "cp", Move: "mv", Remove: "rm"}, nil
	}

	legacy := false

	if osVersion != "" {
		v, err := version.NewVersion(osVersion)
		if err != nil {
			return Helpers{}, fmt.Errorf("parse OS version [%s]: %w", osVersion, err)
		}

		legacy = v.LessThan(legacyBoundary)
	}

	if legacy {
		return Helpers{
			Copy:   path.Join(dir, "cp-15"),
			Move:   path.Join(dir, "mv-15"),
			Remove: path.Join(dir, "rm"),
		}, nil
	}

	return Helpers{
		Copy:   path.Join(dir, "cp"),
		Move:   path.Join(dir, "mv"),
		Remove: path.Join(dir, "rm"),
	}, nil
}

// Override replaces every helper for which a non-empty path is given.
func (h Helpers) Override(cp string, mv string, rm string) Helpers {
	if cp != "" {
		h.Copy = cp
	}

	if mv != "" {
		h.Move = mv
	}

	if rm != "" {
		h.Remove = rm
	}

	return h
}

// DetectOSVersion reads ProductVersion from the system version property list on fs.
func DetectOSVersion(fs afero.Fs) (string, error) {
	f, err := plist.Load(fs, SystemVersionPath)
	if err != nil {
		return "", fmt.Errorf("load system version: %w", err)
	}

	v, ok := f.Root.Get("ProductVersion")
	if !ok {
		return "", fmt.Errorf("no ProductVersion in [%s]", SystemVersionPath)
	}

	s, ok := v.(plist.String)
	if !ok || (s == "") {
		return "", fmt.Errorf("invalid ProductVersion in [%s]", SystemVersionPath)
	}

	return string(s), nil
}
