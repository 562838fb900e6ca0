// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	HandlerConfigNotFoundId Id = iota + 1
	HandlerConfigInvalidId
	NoModulesFoundId
	ModuleDiscoveryFailedId
	DuplicateModuleId
	TransformFailedId
	SettingsLoadFailedId
	DestinationIsSourceId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id
	title    string
	mdMsg    MarkdownMsg
	docLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

// Title is a short plain-text summary for non-terminal output.
func (i *Issue) Title() string {
	return i.title
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Markdown returns the message with its "See also" section.
func (i *Issue) Markdown() string {
	var b strings.Builder
	b.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		b.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			b.WriteString("- <" + string(link) + ">\n")
		}
	}
	return b.String()
}

// Render renders Markdown with the named glamour style ("dark", "light",
// "notty", "ascii" or a style file path).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	handlerConfigNotFoundIssue = &Issue{
		id:    HandlerConfigNotFoundId,
		title: "handler config not found",
		mdMsg: `
# Handler config not found!

Every handler needs a ` + "`config.json`" + ` at the root of its source directory.
Nothing was written to the destination.

## Things you can try:
- Create a minimal config:
~~~json
{"name": "my-handler"}
~~~
- Point the build at a config elsewhere:
~~~
$ handlerpack build --handler-config ./conf/handler.json ./src ./dist
~~~`,
		docLinks: []HttpLink{"https://github.com/handlerpack/handlerpack#handler-layout"},
	}

	handlerConfigInvalidIssue = &Issue{
		id:    HandlerConfigInvalidId,
		title: "handler config is not a JSON object",
		mdMsg: `
# Invalid handler config!

A handler or module config file must contain a single JSON object.

## Common issues:
- Trailing commas or comments (JSON allows neither)
- A top-level array, string or ` + "`null`" + ` instead of an object

## Things you can try:
- Validate the file with ` + "`jq . config.json`" + `
- Inspect what handlerpack reads:
~~~
$ handlerpack inspect ./src
~~~`,
	}

	noModulesFoundIssue = &Issue{
		id:    NoModulesFoundId,
		title: "no handle modules found",
		mdMsg: `
# No handle modules found!

The handler has no ` + "`handle_modules/`" + ` directory and no ` + "`index.js`" + ` or
` + "`index.json`" + ` to fall back on.

## Things you can try:
- Add a module:
~~~
src/
  config.json
  handle_modules/
    hello.js
~~~
- Or add a single ` + "`index.js`" + ` next to ` + "`config.json`" + `
- Use ` + "`--modules-dir`" + ` if your modules live elsewhere`,
		docLinks: []HttpLink{"https://github.com/handlerpack/handlerpack#handler-layout"},
	}

	moduleDiscoveryFailedIssue = &Issue{
		id:    ModuleDiscoveryFailedId,
		title: "module directory could not be listed",
		mdMsg: `
# Could not list handle modules!

The module directory exists but could not be read.

## Things you can try:
- Check the directory permissions
- Look for broken symbolic links inside the module directory
- Make sure the path given to ` + "`--modules-dir`" + ` is a directory`,
	}

	duplicateModuleIssue = &Issue{
		id:    DuplicateModuleId,
		title: "two modules share a name",
		mdMsg: `
# Duplicate module name!

Module names come from directory names and from file names without their
extension, so ` + "`auth/`" + ` and ` + "`auth.js`" + ` both produce the module ` + "`auth`" + `.

## Things you can try:
- Rename or remove one of the two entries
- Run ` + "`handlerpack inspect`" + ` to see every discovered module`,
	}

	transformFailedIssue = &Issue{
		id:    TransformFailedId,
		title: "source transform failed",
		mdMsg: `
# Source transform failed!

A JavaScript or TypeScript file could not be transpiled. The raw aggregation
source was kept as ` + "`index.bak`" + ` in the destination.

## Things you can try:
- Fix the syntax error reported above
- Check the configured target and format:
~~~
$ handlerpack config show
~~~
- Render the aggregation source without writing anything:
~~~
$ handlerpack render ./src
~~~`,
	}

	settingsLoadFailedIssue = &Issue{
		id:    SettingsLoadFailedId,
		title: "settings could not be loaded",
		mdMsg: `
# Failed to load handlerpack settings!

The settings file has invalid CUE syntax or values outside the schema.

## Things you can try:
- Find the file in use:
~~~
$ handlerpack config path
~~~
- Regenerate a default file:
~~~
$ handlerpack config init
~~~`,
	}

	destinationIsSourceIssue = &Issue{
		id:    DestinationIsSourceId,
		title: "destination is the source directory",
		mdMsg: `
# Refusing to build into the source directory!

The generated ` + "`index.js`" + ` would overwrite files of the handler being built.

## Things you can try:
- Pick a separate destination directory:
~~~
$ handlerpack build ./src ./dist
~~~
- A destination nested inside the source, such as ` + "`./src/dist`" + `, is allowed`,
	}

	issues = map[Id]*Issue{
		handlerConfigNotFoundIssue.Id(): handlerConfigNotFoundIssue,
		handlerConfigInvalidIssue.Id():  handlerConfigInvalidIssue,
		noModulesFoundIssue.Id():        noModulesFoundIssue,
		moduleDiscoveryFailedIssue.Id(): moduleDiscoveryFailedIssue,
		duplicateModuleIssue.Id():       duplicateModuleIssue,
		transformFailedIssue.Id():       transformFailedIssue,
		settingsLoadFailedIssue.Id():    settingsLoadFailedIssue,
		destinationIsSourceIssue.Id():   destinationIsSourceIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
