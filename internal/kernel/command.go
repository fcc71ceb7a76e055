package kernel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

var ErrCommand = errors.New("module command failed")

// BlacklistPath is the modprobe configuration file that blacklisted modules are appended to.
const BlacklistPath = "/etc/modprobe.d/blacklist.conf"

// Command is an action that can be staged against a module.
type Command int

const (
	None Command = iota
	Load
	Unload
	Blacklist
)

func (c Command) String() string {
	switch c {
	case Load:
		return "Load"
	case Unload:
		return "Unload"
	case Blacklist:
		return "Blacklist"
	case None:
		fallthrough
	default:
		return "None"
	}
}

func (c Command) IsNone() bool {
	return c == None
}

// Shell returns the command line executed for the module.
func (c Command) Shell(name string) string {
	switch c {
	case Load:
		return "modprobe " + name
	case Unload:
		return "modprobe -r " + name
	case Blacklist:
		return fmt.Sprintf("echo 'blacklist %s' >> %s", name, BlacklistPath)
	case None:
		fallthrough
	default:
		return ""
	}
}

// Description explains the effect of the command to the operator.
func (c Command) Description() string {
	switch c {
	case Load:
		return "Add and remove modules from the Linux Kernel\n" +
			"This command inserts a module to the kernel."
	case Unload:
		return "modprobe: Add and remove modules from the Linux Kernel\n" +
			"This command removes a module from the kernel."
	case Blacklist:
		return "Blacklist the module by adding it to " + BlacklistPath + "\n" +
			"This prevents the module from being loaded automatically on boot."
	case None:
		fallthrough
	default:
		return ""
	}
}

// Prompt is the confirmation text shown in the module information panel.
func (c Command) Prompt(name string) string {
	return fmt.Sprintf("Execute the following command? [y/N]:\n\n%s\n\n%s", c.Shell(name), c.Description())
}

// Executor runs module commands.
type Executor interface {
	Exec(ctx context.Context, cmd Command, name string) error
}

// ShellExecutor runs commands through "sh -c", which requires sufficient privileges.
type ShellExecutor struct {
	Shell string
}

func NewShellExecutor() ShellExecutor {
	return ShellExecutor{Shell: "sh"}
}

func (e ShellExecutor) Exec(ctx context.Context, cmd Command, name string) error {
	line := cmd.Shell(name)
	if line == "" || !ValidName(name) {
		return fmt.Errorf("%w: invalid command %s for %q", ErrCommand, cmd, name)
	}

	out, errExec := exec.CommandContext(ctx, e.Shell, "-c", line).CombinedOutput()
	if errExec != nil {
		slog.Error("Module command failed", slog.String("cmd", line),
			slog.String("output", strings.TrimSpace(string(out))), slog.String("error", errExec.Error()))

		return errors.Join(fmt.Errorf("%s: %s", errExec.Error(), strings.TrimSpace(string(out))), ErrCommand)
	}

	slog.Info("Module command executed", slog.String("cmd", line))

	return nil
}

// ValidName reports whether name can be the target of a command. Pseudo entries such as the
// help page are prefixed with '!' and are never valid.
func ValidName(name string) bool {
	if name == "" || strings.HasPrefix(name, PseudoPrefix) {
		return false
	}

	return !strings.ContainsFunc(name, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\'' || r == ';' || r == '&' || r == '|' || r == '>' || r == '<' || r == '$' || r == '`'
	})
}
