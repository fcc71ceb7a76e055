package kernel_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leighmacdonald/kmon/internal/kernel"
	"github.com/stretchr/testify/require"
)

const procModules = `nvidia_uvm 1531904 2 - Live 0x0000000000000000 (POE)
snd_hda_intel 57344 3 - Live 0x0000000000000000
snd_pcm 196608 4 snd_hda_intel,snd_hda_codec, Live 0x0000000000000000
bluetooth 1007616 31 btrtl,btintel,btbcm,bnep,btusb,rfcomm, Live 0x0000000000000000
`

func TestParseModules(t *testing.T) {
	t.Parallel()

	modules, err := kernel.ParseModules(strings.NewReader(procModules))
	require.NoError(t, err)
	require.Len(t, modules, 4)

	require.Equal(t, "nvidia_uvm", modules[0].Name)
	require.Equal(t, uint64(1531904), modules[0].Size)
	require.Empty(t, modules[0].UsedBy)
	require.Equal(t, "Live", modules[0].State)

	require.Equal(t, []string{"snd_hda_intel", "snd_hda_codec"}, modules[2].UsedBy)
	require.Equal(t, 31, modules[3].Used)
	require.Len(t, modules[3].UsedBy, 6)
	require.Equal(t, "56 KiB", modules[1].HumanSize())
}

func TestParseModulesMalformed(t *testing.T) {
	t.Parallel()

	_, err := kernel.ParseModules(strings.NewReader("broken 12\n"))
	require.ErrorIs(t, err, kernel.ErrModules)

	_, err = kernel.ParseModules(strings.NewReader("broken abc 1 - Live\n"))
	require.ErrorIs(t, err, kernel.ErrModules)
}

func TestSortAndFilter(t *testing.T) {
	t.Parallel()

	modules, err := kernel.ParseModules(strings.NewReader(procModules))
	require.NoError(t, err)

	names := func(mods []kernel.Module) []string {
		out := make([]string, len(mods))
		for i, m := range mods {
			out[i] = m.Name
		}

		return out
	}

	kernel.Sort(modules, kernel.SortOptions{Key: kernel.SortName})
	require.Equal(t, []string{"bluetooth", "nvidia_uvm", "snd_hda_intel", "snd_pcm"}, names(modules))

	kernel.Sort(modules, kernel.SortOptions{Key: kernel.SortSize, Reverse: true})
	require.Equal(t, []string{"nvidia_uvm", "bluetooth", "snd_pcm", "snd_hda_intel"}, names(modules))

	kernel.Sort(modules, kernel.SortOptions{Key: kernel.SortUsed})
	require.Equal(t, []string{"nvidia_uvm", "snd_hda_intel", "snd_pcm", "bluetooth"}, names(modules))

	require.Equal(t, []string{"snd_hda_intel", "snd_pcm"}, names(kernel.Filter(modules, "SND")))
	require.Len(t, kernel.Filter(modules, ""), 4)
	require.Empty(t, kernel.Filter(modules, "zzz"))
}

func TestProcSourceList(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "modules")
	require.NoError(t, os.WriteFile(path, []byte(procModules), 0o600))

	source := kernel.NewProcSource(kernel.SortOptions{Key: kernel.SortName})
	source.Path = path

	modules, err := source.List(context.Background())
	require.NoError(t, err)
	require.Len(t, modules, 4)
	require.Equal(t, "bluetooth", modules[0].Name)

	source.Path = filepath.Join(t.TempDir(), "missing")
	_, err = source.List(context.Background())
	require.ErrorIs(t, err, kernel.ErrModules)
}

type mapCache map[string][]byte

func (m mapCache) Get(key string) ([]byte, error) {
	body, ok := m[key]
	if !ok {
		return nil, os.ErrNotExist
	}

	return body, nil
}

func (m mapCache) Set(key string, content []byte) error {
	m[key] = content

	return nil
}

func TestProcSourceInfoCache(t *testing.T) {
	t.Parallel()

	store := mapCache{}
	source := kernel.NewProcSource(kernel.SortOptions{})
	source.ModInfo = "echo"
	source.Cache = store
	source.Release = "6.1.0"

	info, err := source.Info(context.Background(), "loop")
	require.NoError(t, err)
	require.Equal(t, "loop", info)
	require.Equal(t, []byte("loop"), store["6.1.0_loop"])

	store["6.1.0_loop"] = []byte("cached description")
	info, err = source.Info(context.Background(), "loop")
	require.NoError(t, err)
	require.Equal(t, "cached description", info)

	source.ModInfo = "false"
	_, err = source.Info(context.Background(), "nvme")
	require.ErrorIs(t, err, kernel.ErrModuleInfo)
	require.NotContains(t, store, "6.1.0_nvme")
}

func TestCommandText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "modprobe snd_pcm", kernel.Load.Shell("snd_pcm"))
	require.Equal(t, "modprobe -r snd_pcm", kernel.Unload.Shell("snd_pcm"))
	require.Contains(t, kernel.Blacklist.Shell("snd_pcm"), "blacklist snd_pcm")
	require.Empty(t, kernel.None.Shell("snd_pcm"))
	require.True(t, kernel.None.IsNone())

	prompt := kernel.Unload.Prompt("snd_pcm")
	require.True(t, strings.HasPrefix(prompt, "Execute the following command? [y/N]:"))
	require.Contains(t, prompt, "modprobe -r snd_pcm")
}

func TestValidName(t *testing.T) {
	t.Parallel()

	for name, valid := range map[string]bool{
		"snd_pcm":        true,
		"":               false,
		"!Help":          false,
		"two words":      false,
		"x; rm -rf /":    false,
		"a$(reboot)":     false,
		"nf_conntrack-2": true,
	} {
		require.Equal(t, valid, kernel.ValidName(name), name)
	}
}

func TestShellExecutorRejectsInvalid(t *testing.T) {
	t.Parallel()

	err := kernel.NewShellExecutor().Exec(context.Background(), kernel.Unload, "!Help")
	require.ErrorIs(t, err, kernel.ErrCommand)

	err = kernel.NewShellExecutor().Exec(context.Background(), kernel.None, "snd_pcm")
	require.ErrorIs(t, err, kernel.ErrCommand)
}

func TestInfoCycle(t *testing.T) {
	t.Parallel()

	info := kernel.NewInfo([]kernel.InfoCategory{{Title: "A"}, {Title: "B"}, {Title: "C"}})
	require.Equal(t, "A", info.Current().Title)

	info.Next()
	info.Next()
	require.Equal(t, "C", info.Current().Title)

	info.Next()
	require.Equal(t, "A", info.Current().Title)

	info.Prev()
	require.Equal(t, "C", info.Current().Title)

	var empty kernel.Info
	empty.Next()
	require.Equal(t, kernel.InfoCategory{}, empty.Current())
}

func TestDmesgLogPoll(t *testing.T) {
	t.Parallel()

	logs := kernel.NewDmesgLog(2)
	logs.Command = []string{"sh", "-c", "printf 'one\\ntwo\\nthree\\n'"}

	lines, changed, err := logs.Poll(context.Background())
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, []string{"two", "three"}, lines)

	_, changed, err = logs.Poll(context.Background())
	require.NoError(t, err)
	require.False(t, changed)
}

func TestTailLog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "kern.log")
	require.NoError(t, os.WriteFile(path, []byte("old line\n"), 0o600))

	logs := kernel.NewTailLog(path, 10)
	require.NoError(t, logs.Open())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go logs.Start(ctx)

	_, changed, err := logs.Poll(ctx)
	require.NoError(t, err)
	require.False(t, changed)

	// Give the watcher a moment to attach before appending.
	time.Sleep(100 * time.Millisecond)

	file, errOpen := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, errOpen)
	_, errWrite := file.WriteString("usb 1-1: new high-speed USB device\n")
	require.NoError(t, errWrite)
	require.NoError(t, file.Close())

	require.Eventually(t, func() bool {
		lines, updated, errPoll := logs.Poll(ctx)

		return errPoll == nil && updated && len(lines) == 1 && lines[0] == "usb 1-1: new high-speed USB device"
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, logs.Close(ctx))
}

func TestTailLogUnreadable(t *testing.T) {
	t.Parallel()

	parent := filepath.Join(t.TempDir(), "kern")
	require.NoError(t, os.WriteFile(parent, nil, 0o600))

	// A path below a regular file can never be opened.
	logs := kernel.NewTailLog(filepath.Join(parent, "kern.log"), 10)
	require.NoError(t, logs.Open())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		logs.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "follower kept running after the file could not be opened")
	}

	lines, changed, err := logs.Poll(ctx)
	require.NoError(t, err)
	require.True(t, changed)
	require.Len(t, lines, 1)
	require.True(t, strings.HasPrefix(lines[0], "Stopped following "+parent))

	_, changed, err = logs.Poll(ctx)
	require.NoError(t, err)
	require.False(t, changed)
	require.NoError(t, logs.Close(ctx))
}
