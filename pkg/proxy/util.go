package proxy

import (
	"strings"

	"go.minekube.com/common/minecraft/component"
)

// randomUint64 is the lowercase-named counterpart RandomUint64 callers
// inside the package use for KeepAlive ids.
func randomUint64() uint64 { return RandomUint64() }

// zapComponent wraps a plain string as a chat component, for the
// handful of built-in disconnect reasons the proxy itself generates.
func zapComponent(s string) component.Component {
	return &component.Text{Content: s}
}

// trimSpaces trims leading/trailing whitespace from a command line.
func trimSpaces(s string) string { return strings.TrimSpace(s) }

// extract splits a command line into its command name and argument
// list, the way the client-typed "/<cmd> <args...>" is dispatched to
// the registered command manager.
func extract(commandline string) (cmd string, args []string, ok bool) {
	fields := strings.Fields(commandline)
	if len(fields) == 0 {
		return "", nil, false
	}
	return fields[0], fields[1:], true
}
