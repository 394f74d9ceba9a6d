// Package scripts looks up, templates and runs the commands declared in the
// [scripts] table of bonnie.toml.
//
// A template may contain "%%" placeholders. Each placeholder takes one
// argument, left to right:
//
//	[scripts]
//	greet = "echo Hello %%, welcome to %%"
//
//	bonnie greet Ada bonnie   ->   echo Hello Ada, welcome to bonnie
//
// Passing more or fewer arguments than there are placeholders is an
// ARGUMENT_MISMATCH error.
package scripts

import (
	"maps"
	"slices"
	"strings"

	errs "github.com/matzehuels/bonnie/pkg/errors"
	"github.com/matzehuels/bonnie/pkg/project"
)

// Placeholder marks where an argument is inserted into a template.
const Placeholder = "%%"

// Command is a named command template.
type Command struct {
	Name     string
	Template string
}

// Placeholders returns the number of argument slots in the template.
func (c Command) Placeholders() int {
	return strings.Count(c.Template, Placeholder)
}

// InsertArgs fills the placeholders with args in order.
func (c Command) InsertArgs(args []string) (string, error) {
	if n := c.Placeholders(); n != len(args) {
		return "", errs.New(errs.ErrCodeArgumentMismatch,
			"command '%s' takes %d argument(s), got %d", c.Name, n, len(args))
	}
	var b strings.Builder
	rest := c.Template
	for _, arg := range args {
		before, after, _ := strings.Cut(rest, Placeholder)
		b.WriteString(before)
		b.WriteString(arg)
		rest = after
	}
	b.WriteString(rest)
	return b.String(), nil
}

// Registry holds commands by name.
type Registry struct {
	commands map[string]Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: map[string]Command{}}
}

// FromDocument builds a registry from the document's scripts table.
func FromDocument(doc *project.Document) *Registry {
	r := NewRegistry()
	for name, tmpl := range doc.Scripts {
		r.Add(name, tmpl)
	}
	return r
}

// Add registers or replaces a command.
func (r *Registry) Add(name, template string) {
	r.commands[name] = Command{Name: name, Template: template}
}

// Remove deletes a command. Removing an unknown name does nothing.
func (r *Registry) Remove(name string) {
	delete(r.commands, name)
}

// Get returns the command called name.
func (r *Registry) Get(name string) (Command, error) {
	c, ok := r.commands[name]
	if !ok {
		return Command{}, errs.New(errs.ErrCodeNotFound, "Command '%s' not found.", name)
	}
	return c, nil
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.commands))
}

// CommandFromArgs resolves args[0] against the document's scripts and
// inserts the remaining args into its template.
func CommandFromArgs(doc *project.Document, args []string) (string, error) {
	if len(args) == 0 {
		return "", errs.New(errs.ErrCodeInvalidInput, "You must provide a command to run.")
	}
	cmd, err := FromDocument(doc).Get(args[0])
	if err != nil {
		return "", err
	}
	return cmd.InsertArgs(args[1:])
}
