package command

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/san-kum/atomscene/internal/errs"
)

// RunFunc executes a command inside a transaction with its positional
// words; flags have already been parsed into the variables Bind declared.
type RunFunc func(tx *Tx, args []string) error

type Command struct {
	Name string
	// Setting commands only change how things look and are listed apart
	// in usage output.
	Setting bool
	Args    string
	Short   string
	// Bind declares the command's flags on fs and returns the function
	// that runs it. It is called afresh for every invocation.
	Bind func(fs *pflag.FlagSet) RunFunc
}

func (c *Command) flagSet() (*pflag.FlagSet, RunFunc) {
	fs := pflag.NewFlagSet(c.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = true
	run := c.Bind(fs)
	return fs, run
}

func (c *Command) synopsis(fs *pflag.FlagSet) string {
	var b strings.Builder
	b.WriteString(c.Name)
	fs.VisitAll(func(f *pflag.Flag) {
		b.WriteString(" [-" + f.Name)
		switch n := arity(f); n {
		case 0:
		case oneOrMore:
			b.WriteString(" " + strings.ToUpper(f.Name) + "...")
		default:
			for k := 0; k < n; k++ {
				b.WriteString(" " + strings.ToUpper(f.Name))
			}
		}
		b.WriteString("]")
	})
	if c.Args != "" {
		b.WriteString(" " + c.Args)
	}
	return b.String()
}

// Usage is the one-line synopsis of c.
func (c *Command) Usage() string {
	fs, _ := c.flagSet()
	return c.synopsis(fs)
}

// Help is the synopsis, the description and the flag list.
func (c *Command) Help() string {
	fs, _ := c.flagSet()
	var b strings.Builder
	fmt.Fprintf(&b, "usage: %s\n", c.synopsis(fs))
	if c.Short != "" {
		fmt.Fprintf(&b, "\n%s\n", c.Short)
	}
	if flags := fs.FlagUsages(); flags != "" {
		b.WriteString("\nflags:\n")
		b.WriteString(strings.ReplaceAll(flags, "--", "-"))
	}
	return b.String()
}

type Registry struct {
	cmds map[string]*Command
}

// NewRegistry returns a registry holding every built-in command.
func NewRegistry() *Registry {
	r := &Registry{cmds: make(map[string]*Command)}
	for _, group := range [][]*Command{settingCommands(), frameCommands(), sceneCommands(), stateCommands(), infoCommands()} {
		for _, c := range group {
			r.Register(c)
		}
	}
	return r
}

func (r *Registry) Register(c *Command) {
	r.cmds[c.Name] = c
}

// Lookup resolves word to a command. An exact name wins; otherwise word
// must be the prefix of exactly one command.
func (r *Registry) Lookup(word string) (*Command, error) {
	if c, ok := r.cmds[word]; ok {
		return c, nil
	}
	var matches []string
	for name := range r.cmds {
		if strings.HasPrefix(name, word) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return nil, errs.Invalid("unknown command %q", word)
	case 1:
		return r.cmds[matches[0]], nil
	}
	sort.Strings(matches)
	return nil, errs.Invalid("ambiguous command %q matches %s", word, strings.Join(matches, ", "))
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Usage lists every synopsis, settings first.
func (r *Registry) Usage() string {
	var settings, commands strings.Builder
	for _, name := range r.Names() {
		c := r.cmds[name]
		line := c.Usage() + "\n"
		if c.Setting {
			settings.WriteString(line)
		} else {
			commands.WriteString(line)
		}
	}
	return "SETTINGS:\n" + settings.String() + "\nCOMMANDS:\n" + commands.String()
}
