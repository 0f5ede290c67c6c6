package patcher

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/crissyfield/supericons/internal/operator"
	"github.com/crissyfield/supericons/internal/plist"
)

const metadata = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleDisplayName</key>
	<string>Example</string>
	<key>CFBundleIcons</key>
	<dict>
		<key>CFBundlePrimaryIcon</key>
		<dict>
			<key>CFBundleIconName</key>
			<string>AppIcon</string>
		</dict>
	</dict>
	<key>CFBundleIconFile</key>
	<string>Icon.png</string>
</dict>
</plist>
`

// fakeOperator performs file operations on an afero filesystem and can be told to fail.
type fakeOperator struct {
	fs   afero.Fs
	fail func(command string, args ...string) bool

	mu    sync.Mutex
	calls []string
}

func newFakeOperator(fs afero.Fs) *fakeOperator {
	return &fakeOperator{fs: fs}
}

func (f *fakeOperator) record(command string, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, command+" "+strings.Join(args, " "))
	f.mu.Unlock()

	if (f.fail != nil) && f.fail(command, args...) {
		return &operator.CommandError{Command: command, Reason: operator.Exited(1)}
	}

	return nil
}

func (f *fakeOperator) Copy(src string, dst string) error {
	if err := f.record("cp", src, dst); err != nil {
		return err
	}

	data, err := afero.ReadFile(f.fs, src)
	if err != nil {
		return &operator.CommandError{Command: "cp", Reason: operator.Exited(1)}
	}

	return afero.WriteFile(f.fs, dst, data, 0o644)
}

func (f *fakeOperator) Remove(p string) error {
	if err := f.record("rm", p); err != nil {
		return err
	}

	return f.fs.RemoveAll(p)
}

func (f *fakeOperator) Move(src string, dst string) error {
	if err := f.record("mv", src, dst); err != nil {
		return err
	}

	return f.fs.Rename(src, dst)
}

func (f *fakeOperator) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

// BundleCalls returns the calls except the removal of scratch directories.
func (f *fakeOperator) BundleCalls() []string {
	var calls []string

	for _, call := range f.Calls() {
		if strings.HasPrefix(call, "rm /tmp/") {
			continue
		}

		calls = append(calls, call)
	}

	return calls
}

// noRemoveFs ignores RemoveAll, like filesystems that do not implement it.
type noRemoveFs struct {
	afero.Fs
}

func (noRemoveFs) RemoveAll(string) error {
	return nil
}

// testImage returns a small image with a recognizable pixel.
func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	return img
}

func pngBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))

	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(), nil))

	return buf.Bytes()
}

// setup creates a bundle and an icon on an in-memory filesystem.
func setup(t *testing.T, bundle string, icon []byte, iconName string) (afero.Fs, string, string) {
	fs := afero.NewMemMapFs()

	metadataPath := path.Join(bundle, "Info.plist")
	require.NoError(t, afero.WriteFile(fs, metadataPath, []byte(metadata), 0o644))
	require.NoError(t, afero.WriteFile(fs, path.Join(bundle, "AppIcon60x60@2x.png"), []byte("old"), 0o644))

	iconPath := path.Join("/var/mobile/Documents", iconName)
	require.NoError(t, afero.WriteFile(fs, iconPath, icon, 0o644))

	return fs, metadataPath, iconPath
}

func TestApply_PNG(t *testing.T) {
	icon := pngBytes(t)
	fs, metadataPath, iconPath := setup(t, "/Applications/Example.app", icon, "icon.png")

	op := newFakeOperator(fs)
	p := New(op, WithFs(fs))

	require.NoError(t, p.Apply(metadataPath, iconPath, InstalledIconName))

	// Backup holds the original metadata
	backup, err := afero.ReadFile(fs, "/Applications/Example.app/Info.plist.bak")
	require.NoError(t, err)
	assert.Equal(t, metadata, string(backup))

	// Icon installed unchanged
	installed, err := afero.ReadFile(fs, "/Applications/Example.app/AppIcon_AA.png")
	require.NoError(t, err)
	assert.Equal(t, icon, installed)

	// Caller's icon untouched
	original, err := afero.ReadFile(fs, iconPath)
	require.NoError(t, err)
	assert.Equal(t, icon, original)

	// Icon references rewritten
	doc, err := plist.Load(fs, metadataPath)
	require.NoError(t, err)

	icons, _ := doc.Root.Get("CFBundleIcons")
	assert.Equal(t, plist.String(InstalledIconName), icons)

	file, _ := doc.Root.Get("CFBundleIconFile")
	assert.Equal(t, plist.String(InstalledIconName), file)

	name, _ := doc.Root.Get("CFBundleDisplayName")
	assert.Equal(t, plist.String("Example"), name)

	// Scratch directory cleaned up
	entries, err := afero.ReadDir(fs, "/tmp")
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Stage order, then cleanup
	calls := op.Calls()
	require.Len(t, calls, 5)
	assert.Equal(t, "cp /Applications/Example.app/Info.plist /Applications/Example.app/Info.plist.bak", calls[0])
	assert.True(t, strings.HasPrefix(calls[1], "cp /Applications/Example.app/Info.plist /tmp/"))
	assert.True(t, strings.HasSuffix(calls[2], " /Applications/Example.app/AppIcon_AA.png"))
	assert.True(t, strings.HasSuffix(calls[3], "/Info.plist /Applications/Example.app/Info.plist"))
	assert.True(t, strings.HasPrefix(calls[4], "rm /tmp/"))
}

func TestApply_RemovesScratchThroughOperator(t *testing.T) {
	base, metadataPath, iconPath := setup(t, "/Applications/Example.app", pngBytes(t), "icon.png")

	op := newFakeOperator(base)
	p := New(op, WithFs(noRemoveFs{base}))
	p.newID = func() string { return "fixed-id" }

	require.NoError(t, p.Apply(metadataPath, iconPath, InstalledIconName))

	assert.Contains(t, op.Calls(), "rm /tmp/fixed-id")

	exists, err := afero.Exists(base, "/tmp/fixed-id")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestApply_ScratchCleanupFailureIsNotAnError(t *testing.T) {
	fs, metadataPath, iconPath := setup(t, "/Applications/Example.app", pngBytes(t), "icon.png")

	op := newFakeOperator(fs)
	op.fail = func(command string, args ...string) bool {
		return (command == "rm") && strings.HasPrefix(args[0], "/tmp/")
	}

	require.NoError(t, New(op, WithFs(fs)).Apply(metadataPath, iconPath, InstalledIconName))

	entries, err := afero.ReadDir(fs, "/tmp")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestApply_JPEG(t *testing.T) {
	fs, metadataPath, iconPath := setup(t, "/Applications/Example.app", jpegBytes(t), "photo.JPG")

	p := New(newFakeOperator(fs), WithFs(fs))

	require.NoError(t, p.Apply(metadataPath, iconPath, InstalledIconName))

	installed, err := afero.ReadFile(fs, "/Applications/Example.app/AppIcon_AA.png")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(installed))
	require.NoError(t, err)
	assert.Equal(t, testImage().Bounds(), img.Bounds())
}

func TestApply_SeparateSourceFs(t *testing.T) {
	fs, metadataPath, _ := setup(t, "/Applications/Example.app", nil, "unused.png")

	source := afero.NewMemMapFs()
	icon := pngBytes(t)
	require.NoError(t, afero.WriteFile(source, "/home/user/icon.png", icon, 0o644))

	p := New(newFakeOperator(fs), WithFs(fs), WithSourceFs(source))

	require.NoError(t, p.Apply(metadataPath, "/home/user/icon.png", "Custom.png"))

	installed, err := afero.ReadFile(fs, "/Applications/Example.app/Custom.png")
	require.NoError(t, err)
	assert.Equal(t, icon, installed)
}

func TestApply_ConversionFailureTouchesNothing(t *testing.T) {
	fs, metadataPath, iconPath := setup(t, "/Applications/Example.app", []byte("not an image"), "broken.jpg")

	op := newFakeOperator(fs)
	p := New(op, WithFs(fs))

	err := p.Apply(metadataPath, iconPath, InstalledIconName)

	var convErr *ImageConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Empty(t, op.BundleCalls())

	exists, _ := afero.Exists(fs, "/Applications/Example.app/Info.plist.bak")
	assert.False(t, exists)
}

func TestApply_MissingIcon(t *testing.T) {
	fs, metadataPath, _ := setup(t, "/Applications/Example.app", pngBytes(t), "icon.png")

	op := newFakeOperator(fs)
	err := New(op, WithFs(fs)).Apply(metadataPath, "/nope.png", InstalledIconName)

	var convErr *ImageConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Empty(t, op.BundleCalls())
}

func TestApply_UnsupportedFormat(t *testing.T) {
	fs, metadataPath, iconPath := setup(t, "/Applications/Example.app", []byte("GIF89a"), "icon.gif")

	err := New(newFakeOperator(fs), WithFs(fs)).Apply(metadataPath, iconPath, InstalledIconName)

	var convErr *ImageConversionError
	assert.ErrorAs(t, err, &convErr)
}

func TestApply_ScratchDirectoryFailure(t *testing.T) {
	base, metadataPath, iconPath := setup(t, "/Applications/Example.app", pngBytes(t), "icon.png")
	fs := afero.NewReadOnlyFs(base)

	op := newFakeOperator(base)
	err := New(op, WithFs(fs)).Apply(metadataPath, iconPath, InstalledIconName)

	var dirErr *DirectoryCreationError
	require.ErrorAs(t, err, &dirErr)
	assert.True(t, strings.HasPrefix(dirErr.Path, "/tmp/"))
	assert.Empty(t, op.Calls())
}

func TestApply_UnreadableMetadata(t *testing.T) {
	fs, metadataPath, iconPath := setup(t, "/Applications/Example.app", pngBytes(t), "icon.png")
	require.NoError(t, afero.WriteFile(fs, metadataPath, []byte("garbage"), 0o644))

	op := newFakeOperator(fs)
	err := New(op, WithFs(fs)).Apply(metadataPath, iconPath, InstalledIconName)

	var readErr *plist.ReadError
	require.ErrorAs(t, err, &readErr)

	// The final replacement never ran
	assert.Len(t, op.BundleCalls(), 3)

	live, err := afero.ReadFile(fs, metadataPath)
	require.NoError(t, err)
	assert.Equal(t, "garbage", string(live))
}

func TestApply_StageFailures(t *testing.T) {
	tests := []struct {
		name      string
		failAt    int
		backup    bool
		installed bool
	}{
		{"backup", 0, false, false},
		{"working copy", 1, true, false},
		{"install icon", 2, true, false},
		{"replace metadata", 3, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, metadataPath, iconPath := setup(t, "/Applications/Example.app", pngBytes(t), "icon.png")

			op := newFakeOperator(fs)
			n := 0
			op.fail = func(string, ...string) bool {
				n++
				return n-1 == tt.failAt
			}

			err := New(op, WithFs(fs)).Apply(metadataPath, iconPath, InstalledIconName)

			var cmdErr *operator.CommandError
			require.ErrorAs(t, err, &cmdErr)
			assert.Equal(t, "cp", cmdErr.Command)

			// No later stage ran
			assert.Len(t, op.BundleCalls(), tt.failAt+1)

			// Nothing was rolled back, and the live file is still the original
			backup, _ := afero.Exists(fs, "/Applications/Example.app/Info.plist.bak")
			assert.Equal(t, tt.backup, backup)

			installed, _ := afero.Exists(fs, "/Applications/Example.app/AppIcon_AA.png")
			assert.Equal(t, tt.installed, installed)

			live, err := afero.ReadFile(fs, metadataPath)
			require.NoError(t, err)
			assert.Equal(t, metadata, string(live))
		})
	}
}

func TestApply_ConcurrentBundlesUseDistinctScratch(t *testing.T) {
	fs := afero.NewMemMapFs()
	icon := pngBytes(t)
	require.NoError(t, afero.WriteFile(fs, "/icon.png", icon, 0o644))

	bundles := []string{"/Applications/A.app", "/Applications/B.app", "/Applications/C.app", "/Applications/D.app"}
	for _, b := range bundles {
		require.NoError(t, afero.WriteFile(fs, path.Join(b, "Info.plist"), []byte(metadata), 0o644))
	}

	op := newFakeOperator(fs)
	p := New(op, WithFs(fs))

	var g errgroup.Group

	for _, b := range bundles {
		g.Go(func() error {
			return p.Apply(path.Join(b, "Info.plist"), "/icon.png", InstalledIconName)
		})
	}

	require.NoError(t, g.Wait())

	// Each bundle's working copy lives in its own scratch directory
	scratch := make(map[string]string)

	for _, call := range op.Calls() {
		fields := strings.Fields(call)
		if (fields[0] != "cp") || !strings.HasPrefix(fields[2], "/tmp/") {
			continue
		}

		dir := path.Dir(fields[2])
		bundle := path.Dir(fields[1])

		if other, ok := scratch[dir]; ok {
			assert.Equal(t, other, bundle, "scratch directory %s shared", dir)
		}

		scratch[dir] = bundle
	}

	assert.Len(t, scratch, len(bundles))

	for _, b := range bundles {
		installed, err := afero.ReadFile(fs, path.Join(b, InstalledIconName))
		require.NoError(t, err)
		assert.Equal(t, icon, installed)
	}
}

func TestRestore_AfterApply(t *testing.T) {
	fs, metadataPath, iconPath := setup(t, "/Applications/Example.app", jpegBytes(t), "icon.jpeg")

	p := New(newFakeOperator(fs), WithFs(fs))

	require.NoError(t, p.Apply(metadataPath, iconPath, p.IconName()))
	require.NoError(t, p.Restore(metadataPath))

	live, err := afero.ReadFile(fs, metadataPath)
	require.NoError(t, err)
	assert.Equal(t, metadata, string(live))

	backup, _ := afero.Exists(fs, "/Applications/Example.app/Info.plist.bak")
	assert.False(t, backup)

	installed, _ := afero.Exists(fs, "/Applications/Example.app/AppIcon_AA.png")
	assert.False(t, installed)

	// The bundle's own icons are left alone
	own, _ := afero.Exists(fs, "/Applications/Example.app/AppIcon60x60@2x.png")
	assert.True(t, own)

	// A second restore finds nothing to restore
	assert.ErrorIs(t, p.Restore(metadataPath), ErrNoBackup)
}

func TestRestore_NoBackup(t *testing.T) {
	fs, metadataPath, _ := setup(t, "/Applications/Example.app", pngBytes(t), "icon.png")

	op := newFakeOperator(fs)
	err := New(op, WithFs(fs)).Restore(metadataPath)

	assert.ErrorIs(t, err, ErrNoBackup)
	assert.Empty(t, op.Calls())

	live, err := afero.ReadFile(fs, metadataPath)
	require.NoError(t, err)
	assert.Equal(t, metadata, string(live))
}

func TestRestore_MoveFailureLeavesNoMetadata(t *testing.T) {
	fs, metadataPath, iconPath := setup(t, "/Applications/Example.app", pngBytes(t), "icon.png")

	op := newFakeOperator(fs)
	p := New(op, WithFs(fs))
	require.NoError(t, p.Apply(metadataPath, iconPath, InstalledIconName))

	op.fail = func(command string, _ ...string) bool { return command == "mv" }

	err := p.Restore(metadataPath)

	var cmdErr *operator.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "mv", cmdErr.Command)

	live, _ := afero.Exists(fs, metadataPath)
	assert.False(t, live)

	backup, _ := afero.Exists(fs, "/Applications/Example.app/Info.plist.bak")
	assert.True(t, backup)
}

func TestRestore_CustomIconName(t *testing.T) {
	fs, metadataPath, iconPath := setup(t, "/Applications/Example.app", pngBytes(t), "icon.png")

	op := newFakeOperator(fs)
	p := New(op, WithFs(fs), WithIconName("Custom.png"))

	require.NoError(t, p.Apply(metadataPath, iconPath, p.IconName()))
	require.NoError(t, p.Restore(metadataPath))

	assert.Contains(t, op.Calls(), "rm /Applications/Example.app/Custom.png")
}

func TestResultOf(t *testing.T) {
	ok := ResultOf(nil)
	assert.True(t, ok.Success)
	assert.Contains(t, ok.Message, "rebuild the icon cache")

	failed := ResultOf(fmt.Errorf("replace Info.plist: %w", &operator.CommandError{Command: "cp", Reason: operator.Exited(1)}))
	assert.False(t, failed.Success)
	assert.Equal(t, "replace Info.plist: cp command failed with reason: exit(1)", failed.Message)

	assert.Equal(t, ErrNoBackup.Error(), ResultOf(ErrNoBackup).Message)
}

func TestBundleRef(t *testing.T) {
	b := BundleRef{MetadataPath: "/var/containers/Bundle/Application/X/Example.app/Info.plist"}

	assert.Equal(t, "/var/containers/Bundle/Application/X/Example.app", b.Dir())
	assert.Equal(t, "/var/containers/Bundle/Application/X/Example.app/Info.plist.bak", b.BackupPath())
	assert.Equal(t, "/var/containers/Bundle/Application/X/Example.app/AppIcon_AA.png", b.IconPath(InstalledIconName))
}
