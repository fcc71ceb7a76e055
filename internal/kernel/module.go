package kernel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

var (
	ErrModules    = errors.New("failed to read kernel modules")
	ErrModuleInfo = errors.New("failed to read module information")
)

// PseudoPrefix marks names that are shown in the module information panel but do not refer
// to a highlighted, loaded module.
const PseudoPrefix = "!"

// ProcModulesPath is the kernel interface listing the loaded modules.
const ProcModulesPath = "/proc/modules"

// Module is one loaded kernel module.
type Module struct {
	Name   string
	Size   uint64
	Used   int
	UsedBy []string
	State  string
}

// HumanSize formats the module size in IEC units.
func (m Module) HumanSize() string {
	return humanize.IBytes(m.Size)
}

// SortKey selects the module list ordering.
type SortKey string

const (
	SortName SortKey = "name"
	SortSize SortKey = "size"
	SortUsed SortKey = "used"
)

// SortOptions controls the order of the module list.
type SortOptions struct {
	Key     SortKey
	Reverse bool
}

// Sort orders modules in place.
func Sort(modules []Module, opts SortOptions) {
	slices.SortStableFunc(modules, func(a, b Module) int {
		var cmp int
		switch opts.Key {
		case SortSize:
			cmp = compare(a.Size, b.Size)
		case SortUsed:
			cmp = compare(a.Used, b.Used)
		case SortName:
			fallthrough
		default:
			cmp = strings.Compare(a.Name, b.Name)
		}

		if cmp == 0 {
			cmp = strings.Compare(a.Name, b.Name)
		}

		if opts.Reverse {
			return -cmp
		}

		return cmp
	})
}

func compare[T int | uint64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Filter returns the modules whose name contains query, ignoring case. An empty query
// returns the input unchanged.
func Filter(modules []Module, query string) []Module {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return modules
	}

	var filtered []Module
	for _, module := range modules {
		if strings.Contains(strings.ToLower(module.Name), query) {
			filtered = append(filtered, module)
		}
	}

	return filtered
}

// ParseModules parses the /proc/modules format:
//
//	name size refcount used_by state address
func ParseModules(reader io.Reader) ([]Module, error) {
	var modules []Module

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, errors.Join(fmt.Errorf("malformed line: %q", line), ErrModules)
		}

		size, errSize := strconv.ParseUint(fields[1], 10, 64)
		if errSize != nil {
			return nil, errors.Join(errSize, ErrModules)
		}

		used, errUsed := strconv.Atoi(fields[2])
		if errUsed != nil {
			return nil, errors.Join(errUsed, ErrModules)
		}

		module := Module{Name: fields[0], Size: size, Used: used}
		if fields[3] != "-" {
			for _, name := range strings.Split(fields[3], ",") {
				if name != "" {
					module.UsedBy = append(module.UsedBy, name)
				}
			}
		}

		if len(fields) > 4 {
			module.State = fields[4]
		}

		modules = append(modules, module)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Join(err, ErrModules)
	}

	return modules, nil
}

// ModuleSource enumerates loaded modules and describes them.
type ModuleSource interface {
	List(ctx context.Context) ([]Module, error)
	Info(ctx context.Context, name string) (string, error)
}

// InfoCache stores module descriptions between runs.
type InfoCache interface {
	Get(key string) ([]byte, error)
	Set(key string, content []byte) error
}

// ProcSource reads modules from procfs and describes them with modinfo.
type ProcSource struct {
	Path    string
	Sort    SortOptions
	ModInfo string
	// Cache is optional. Entries are keyed by Release so an upgraded kernel never shows
	// stale descriptions.
	Cache   InfoCache
	Release string
}

func NewProcSource(opts SortOptions) *ProcSource {
	return &ProcSource{Path: ProcModulesPath, Sort: opts, ModInfo: "modinfo"}
}

func (s *ProcSource) List(_ context.Context) ([]Module, error) {
	file, errOpen := os.Open(s.Path)
	if errOpen != nil {
		return nil, errors.Join(errOpen, ErrModules)
	}
	defer file.Close()

	modules, errParse := ParseModules(file)
	if errParse != nil {
		return nil, errParse
	}

	Sort(modules, s.Sort)

	return modules, nil
}

func (s *ProcSource) Info(ctx context.Context, name string) (string, error) {
	cacheKey := s.Release + "_" + name
	if s.Cache != nil {
		if body, errCache := s.Cache.Get(cacheKey); errCache == nil {
			return string(body), nil
		}
	}

	out, errExec := exec.CommandContext(ctx, s.ModInfo, name).CombinedOutput()
	if errExec != nil {
		return "", errors.Join(fmt.Errorf("%s: %s", errExec.Error(), strings.TrimSpace(string(out))), ErrModuleInfo)
	}

	info := strings.TrimRight(string(out), "\n")
	if s.Cache != nil {
		if errSet := s.Cache.Set(cacheKey, []byte(info)); errSet != nil {
			slog.Warn("Failed to cache module info", slog.String("module", name), slog.String("error", errSet.Error()))
		}
	}

	return info, nil
}
