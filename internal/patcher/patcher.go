// Package patcher swaps and restores application icons inside a bundle.
//
// Apply and Restore are ordered sequences of privileged file operations. They are not
// transactional: when a step fails the sequence stops and nothing that already happened
// is undone. In particular a failed Restore can leave a bundle without its Info.plist,
// and a failed Apply leaves the backup and possibly the new icon in place.
package patcher

import (
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/crissyfield/supericons/internal/plist"
)

// ErrNoBackup is returned by Restore when the bundle has never been patched.
var ErrNoBackup = errors.New("no backup found, change the icon before attempting to restore")

// DirectoryCreationError is returned when the scratch directory cannot be created.
type DirectoryCreationError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *DirectoryCreationError) Error() string {
	return fmt.Sprintf("failed to create directory [%s]: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *DirectoryCreationError) Unwrap() error {
	return e.Err
}

// FileOperator performs privileged file mutations.
type FileOperator interface {
	Copy(src string, dst string) error
	Remove(path string) error
	Move(src string, dst string) error
}

// Patcher applies and restores icons. It holds no per-bundle state and may be shared by
// goroutines working on different bundles; callers serialize work on the same bundle.
type Patcher struct {
	op          FileOperator
	fs          afero.Fs // fs is where bundles and the scratch root live.
	source      afero.Fs // source is where icon files chosen by the user live.
	scratchRoot string
	iconName    string
	newID       func() string
}

// Option configures a Patcher.
type Option func(*Patcher)

// WithFs sets the filesystem holding the bundles and the scratch root.
func WithFs(fs afero.Fs) Option {
	return func(p *Patcher) { p.fs = fs }
}

// WithSourceFs sets the filesystem icon files are read from.
func WithSourceFs(fs afero.Fs) Option {
	return func(p *Patcher) { p.source = fs }
}

// WithScratchRoot sets the directory scratch directories are created in.
func WithScratchRoot(dir string) Option {
	return func(p *Patcher) { p.scratchRoot = dir }
}

// WithIconName sets the installed icon name Restore removes.
func WithIconName(name string) Option {
	return func(p *Patcher) { p.iconName = name }
}

// New returns a patcher mutating bundles through op.
func New(op FileOperator, opts ...Option) *Patcher {
	p := &Patcher{
		op:          op,
		fs:          afero.NewOsFs(),
		scratchRoot: "/tmp",
		iconName:    InstalledIconName,
		newID:       uuid.NewString,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.source == nil {
		p.source = p.fs
	}

	return p
}

// IconName returns the installed icon name used by Restore.
func (p *Patcher) IconName() string {
	return p.iconName
}

// Apply installs the icon at iconSourcePath into the bundle owning metadataPath under
// installedIconName and points every icon reference in its Info.plist at it.
func (p *Patcher) Apply(metadataPath string, iconSourcePath string, installedIconName string) error {
	bundle := BundleRef{MetadataPath: metadataPath}

	log := slog.With(slog.String("bundle", bundle.Dir()))

	// Create scratch directory
	scratch := path.Join(p.scratchRoot, p.newID())

	if err := p.fs.MkdirAll(scratch, 0o755); err != nil {
		return &DirectoryCreationError{Path: scratch, Err: err}
	}

	defer func() {
		// The working copy is owned by the helper, so cleanup goes through it as well
		if err := p.op.Remove(scratch); err != nil {
			log.Warn("Failed to remove scratch directory", slog.String("path", scratch), slog.Any("error", err))
		}
	}()

	// Stage icon as PNG
	stagedIcon, err := p.stageIcon(iconSourcePath, scratch)
	if err != nil {
		return err
	}

	// Back up metadata
	log.Info("Backing up Info.plist", slog.String("backup", bundle.BackupPath()))

	if err := p.op.Copy(bundle.MetadataPath, bundle.BackupPath()); err != nil {
		return fmt.Errorf("back up Info.plist: %w", err)
	}

	// Copy metadata to working copy
	workingCopy := path.Join(scratch, "Info.plist")

	if err := p.op.Copy(bundle.MetadataPath, workingCopy); err != nil {
		return fmt.Errorf("copy Info.plist to scratch directory: %w", err)
	}

	// Install icon
	log.Info("Installing icon", slog.String("icon", installedIconName))

	if err := p.op.Copy(stagedIcon, bundle.IconPath(installedIconName)); err != nil {
		return fmt.Errorf("install icon: %w", err)
	}

	// Rewrite icon references
	doc, err := plist.Load(p.fs, workingCopy)
	if err != nil {
		return err
	}

	n := plist.RewriteIconKeys(doc.Root, installedIconName)
	log.Debug("Rewrote icon references", slog.Int("count", n))

	if err := doc.Save(p.fs); err != nil {
		return err
	}

	// Replace live metadata
	log.Info("Replacing Info.plist")

	if err := p.op.Copy(workingCopy, bundle.MetadataPath); err != nil {
		return fmt.Errorf("replace Info.plist: %w", err)
	}

	return nil
}

// stageIcon writes the PNG form of the icon into the scratch directory.
func (p *Patcher) stageIcon(iconSourcePath string, scratch string) (string, error) {
	icon, err := ReadIcon(p.source, iconSourcePath)
	if err != nil {
		return "", err
	}

	data, err := icon.PNG()
	if err != nil {
		return "", err
	}

	staged := path.Join(scratch, p.newID()+".png")

	if err := afero.WriteFile(p.fs, staged, data, 0o644); err != nil {
		return "", &ImageConversionError{Path: iconSourcePath, Err: fmt.Errorf("write staged icon: %w", err)}
	}

	return staged, nil
}

// Restore puts the backed-up Info.plist back in place and removes the installed icon.
// Without a backup it returns ErrNoBackup and touches nothing.
func (p *Patcher) Restore(metadataPath string) error {
	bundle := BundleRef{MetadataPath: metadataPath}

	log := slog.With(slog.String("bundle", bundle.Dir()))

	// Check for backup
	ok, err := afero.Exists(p.fs, bundle.BackupPath())
	if err != nil {
		return fmt.Errorf("check backup [%s]: %w", bundle.BackupPath(), err)
	}

	if !ok {
		return ErrNoBackup
	}

	// Remove live metadata and installed icon
	log.Info("Removing patched Info.plist and icon", slog.String("icon", p.iconName))

	if err := p.op.Remove(bundle.MetadataPath); err != nil {
		return fmt.Errorf("remove Info.plist: %w", err)
	}

	if err := p.op.Remove(bundle.IconPath(p.iconName)); err != nil {
		return fmt.Errorf("remove icon: %w", err)
	}

	// Move backup into place
	log.Info("Restoring Info.plist from backup")

	if err := p.op.Move(bundle.BackupPath(), bundle.MetadataPath); err != nil {
		return fmt.Errorf("restore Info.plist: %w", err)
	}

	return nil
}
