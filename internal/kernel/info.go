package kernel

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

var ErrKernelInfo = errors.New("failed to read kernel information")

// InfoField is a single labelled value shown in the kernel information panel.
type InfoField struct {
	Label string
	Value string
}

// InfoCategory is one page of the kernel information panel.
type InfoCategory struct {
	Title  string
	Fields []InfoField
}

// InfoSource produces the kernel information categories.
type InfoSource interface {
	Categories(ctx context.Context) ([]InfoCategory, error)
}

// Info holds a snapshot of the kernel information categories and the one currently shown.
type Info struct {
	categories []InfoCategory
	current    int
}

func NewInfo(categories []InfoCategory) Info {
	return Info{categories: categories}
}

// Current returns the category being displayed.
func (i Info) Current() InfoCategory {
	if len(i.categories) == 0 {
		return InfoCategory{}
	}

	return i.categories[i.current]
}

func (i Info) Index() int {
	return i.current
}

func (i Info) Len() int {
	return len(i.categories)
}

// Next moves to the following category, wrapping to the first.
func (i *Info) Next() {
	i.step(1)
}

// Prev moves to the preceding category, wrapping to the last.
func (i *Info) Prev() {
	i.step(-1)
}

func (i *Info) step(delta int) {
	count := len(i.categories)
	if count == 0 {
		return
	}

	i.current = ((i.current+delta)%count + count) % count
}

// SystemInfo reads kernel information from uname and procfs.
type SystemInfo struct {
	OSReleasePath string
	UptimePath    string
	now           func() time.Time
}

func NewSystemInfo() SystemInfo {
	return SystemInfo{OSReleasePath: "/etc/os-release", UptimePath: "/proc/uptime", now: time.Now}
}

// Release returns the running kernel release.
func Release() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", errors.Join(err, ErrKernelInfo)
	}

	return unix.ByteSliceToString(uts.Release[:]), nil
}

func (s SystemInfo) Categories(_ context.Context) ([]InfoCategory, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return nil, errors.Join(err, ErrKernelInfo)
	}

	categories := []InfoCategory{
		{Title: "Kernel", Fields: []InfoField{
			{Label: "Name", Value: unix.ByteSliceToString(uts.Sysname[:])},
			{Label: "Release", Value: unix.ByteSliceToString(uts.Release[:])},
			{Label: "Version", Value: unix.ByteSliceToString(uts.Version[:])},
		}},
		{Title: "Host", Fields: []InfoField{
			{Label: "Hostname", Value: unix.ByteSliceToString(uts.Nodename[:])},
			{Label: "Machine", Value: unix.ByteSliceToString(uts.Machine[:])},
		}},
		{Title: "System", Fields: []InfoField{
			{Label: "OS", Value: s.osName()},
			{Label: "Booted", Value: s.bootTime()},
		}},
	}

	return categories, nil
}

func (s SystemInfo) osName() string {
	file, err := os.Open(s.OSReleasePath)
	if err != nil {
		return "unknown"
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if value, found := strings.CutPrefix(scanner.Text(), "PRETTY_NAME="); found {
			return strings.Trim(value, `"`)
		}
	}

	return "unknown"
}

func (s SystemInfo) bootTime() string {
	body, err := os.ReadFile(s.UptimePath)
	if err != nil {
		return "unknown"
	}

	fields := strings.Fields(string(body))
	if len(fields) == 0 {
		return "unknown"
	}

	seconds, errParse := strconv.ParseFloat(fields[0], 64)
	if errParse != nil {
		return "unknown"
	}

	now := time.Now
	if s.now != nil {
		now = s.now
	}

	return humanize.Time(now().Add(-time.Duration(seconds * float64(time.Second))))
}
