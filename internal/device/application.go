package device

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/frida/frida-go/frida"
	"github.com/go-viper/mapstructure/v2"
)

// Application represents an application installed on the device.
type Application struct {
	Identifier string // Identifier is the unique identifier of the application.
	Name       string // Name is the human-readable name of the application.
	Version    string // Version is the version of the application.
	Build      string // Build is the build number of the application.
	Path       string // Path is the file system path to the application bundle.
}

// InfoPlistPath returns the path of the application's Info.plist.
func (app *Application) InfoPlistPath() string {
	return path.Join(app.Path, "Info.plist")
}

// ListApplications retrieves all applications installed on the device.
func (dev *Device) ListApplications() ([]*Application, error) {
	// Enumerate applications
	apps, err := dev.device.EnumerateApplications("", frida.ScopeFull)
	if err != nil {
		return nil, fmt.Errorf("enumerate applications: %w", err)
	}

	var applications []*Application

	for _, app := range apps {
		// Get application parameters
		var params struct {
			Build   string `mapstructure:"build"`
			Path    string `mapstructure:"path"`
			Version string `mapstructure:"version"`
		}

		err = mapstructure.Decode(app.Params(), &params)
		if err != nil {
			return nil, fmt.Errorf("decode application parameters [%s]: %w", app.Identifier(), err)
		}

		// Append application
		applications = append(applications, &Application{
			Identifier: app.Identifier(),
			Name:       app.Name(),
			Version:    params.Version,
			Build:      params.Build,
			Path:       params.Path,
		})
	}

	return applications, nil
}

// FilterApplications drops Apple's own applications and those missing a bundle path,
// display name or version, keeps the ones whose name contains search (case-insensitive, empty matches all) and
// sorts the result by name.
func FilterApplications(apps []*Application, search string) []*Application {
	search = strings.ToLower(search)

	var filtered []*Application

	for _, app := range apps {
		if strings.HasPrefix(app.Identifier, "com.apple") || (app.Path == "") || (app.Name == "") || (app.Version == "") {
			continue
		}

		if (search != "") && !strings.Contains(strings.ToLower(app.Name), search) {
			continue
		}

		filtered = append(filtered, app)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return strings.ToLower(filtered[i].Name) < strings.ToLower(filtered[j].Name)
	})

	return filtered
}
