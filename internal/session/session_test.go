package session

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ashwch/vterm/internal/dispatch"
	"github.com/ashwch/vterm/internal/router"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const home = "/home/user"

type memoryRecorder struct {
	mu      sync.Mutex
	entries []string
}

func (r *memoryRecorder) Append(command string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, command)
	return nil
}

func newDispatcher(t *testing.T) (*dispatch.Dispatcher, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(filepath.Join(home, "Desktop"), 0o755))
	require.NoError(t, fs.MkdirAll(filepath.Join(home, "Projects"), 0o755))
	return dispatch.New(dispatch.WithFs(fs)), fs
}

func TestExecuteShowCurrentDirectoryEndToEnd(t *testing.T) {
	d, _ := newDispatcher(t)
	s := New("s1", home, d, nil)

	result := s.Execute(context.Background(), "show current directory")
	assert.Equal(t, "pwd", result.Normalized)
	assert.Equal(t, []string{home}, result.Lines)
	assert.Equal(t, home, result.WorkingDirectory)
	assert.Equal(t, home, s.WorkingDirectory())
}

func TestExecuteLeavesNormalizedEmptyWhenUnchanged(t *testing.T) {
	d, _ := newDispatcher(t)
	s := New("s1", home, d, nil)

	result := s.Execute(context.Background(), "pwd")
	assert.Empty(t, result.Normalized)

	result = s.Execute(context.Background(), "  pwd  ")
	assert.Empty(t, result.Normalized)
}

func TestExecuteTracksDirectoryAcrossCommands(t *testing.T) {
	d, fs := newDispatcher(t)
	s := New("s1", home, d, nil)

	result := s.Execute(context.Background(), "go to Desktop")
	assert.Equal(t, "cd Desktop", result.Normalized)
	assert.Equal(t, filepath.Join(home, "Desktop"), s.WorkingDirectory())

	result = s.Execute(context.Background(), "create folder MyProject")
	assert.Equal(t, []string{"Directory created: MyProject"}, result.Lines)
	exists, err := afero.DirExists(fs, filepath.Join(home, "Desktop", "MyProject"))
	require.NoError(t, err)
	assert.True(t, exists)

	result = s.Execute(context.Background(), "delete folder MyProject")
	assert.Equal(t, "rm -rf MyProject", result.Normalized)
	assert.Equal(t, []string{"Directory removed: MyProject"}, result.Lines)

	s.Execute(context.Background(), "cd Missing")
	assert.Equal(t, filepath.Join(home, "Desktop"), s.WorkingDirectory())
}

func TestExecuteMarksSessionEnded(t *testing.T) {
	d, _ := newDispatcher(t)
	s := New("s1", home, d, nil)

	assert.False(t, s.Ended())
	result := s.Execute(context.Background(), "close")
	assert.True(t, result.Exit)
	assert.Equal(t, "exit", result.Normalized)
	assert.True(t, s.Ended())
}

func TestExecuteRecordsCleanedInput(t *testing.T) {
	d, _ := newDispatcher(t)
	recorder := &memoryRecorder{}
	s := New("s1", home, d, recorder)

	s.Execute(context.Background(), "$ where am i")
	s.Execute(context.Background(), "   ")
	assert.Equal(t, []string{"where am i"}, recorder.entries)
}

func TestPreview(t *testing.T) {
	d, _ := newDispatcher(t)
	s := New("s1", home, d, nil)

	preview := s.Preview("create folder Reports")
	assert.Equal(t, "mkdir Reports", preview.Canonical)
	assert.Equal(t, router.VerbMkdir, preview.Verb)
	assert.False(t, preview.HighRisk)

	preview = s.Preview("sudo rm -rf /")
	assert.Equal(t, router.VerbPassthrough, preview.Verb)
	assert.True(t, preview.HighRisk)

	preview = s.Preview("delete folder /")
	assert.Equal(t, router.VerbRm, preview.Verb)
	assert.True(t, preview.HighRisk)

	preview = s.Preview("delete folder Reports")
	assert.Equal(t, "rm -rf Reports", preview.Canonical)
	assert.False(t, preview.HighRisk)
	assert.Equal(t, home, s.WorkingDirectory())
}

func TestPreviewResolvesRmTargets(t *testing.T) {
	t.Setenv("HOME", home)
	d, _ := newDispatcher(t)
	s := New("s1", filepath.Join(home, "Projects"), d, nil)

	cases := map[string]bool{
		"rm -rf //":         true,
		"rm -rf /.":         true,
		"delete folder //":  true,
		"remove folder ./.": true,
		"rm .":              true,
		"rm ../..":          true,
		"rm -rf ..":         true,
		"rm -rf /etc":       true,
		"rm -rf /home/user": true,
		"rm -rf ~":          true,
		"rm *":              true,
		"rm -rf site":       false,
		"rm ../notes.txt":   false,
		"rm -rf ../Desktop": false,
		"delete file a.txt": false,
		"rm -rf /srv/cache": false,
		"rm -f":             false,
	}
	for input, want := range cases {
		assert.Equal(t, want, s.Preview(input).HighRisk, input)
	}
}

func TestExecuteSerializesConcurrentDispatches(t *testing.T) {
	d, _ := newDispatcher(t)
	s := New("s1", home, d, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Execute(context.Background(), "cd "+filepath.Join(home, "Projects"))
			} else {
				s.Execute(context.Background(), "cd "+home)
			}
		}(i)
	}
	wg.Wait()

	dir := s.WorkingDirectory()
	assert.Contains(t, []string{home, filepath.Join(home, "Projects")}, dir)
}

func TestStatusIsReadOnly(t *testing.T) {
	d, _ := newDispatcher(t)
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s := newWithClock("s1", home, d, nil, func() time.Time { return fixed })

	status := s.Status()
	assert.Equal(t, "s1", status.ID)
	assert.Equal(t, home, status.WorkingDirectory)
	assert.Equal(t, fixed, status.Timestamp)
	assert.Equal(t, home, s.WorkingDirectory())
}
