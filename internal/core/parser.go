package core

import (
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"remote-apt-dater/internal/types"
)

const instPrefix = "Inst "

// ParseDryRunOutput extracts pending updates from the stdout of a
// simulated apt-get dist-upgrade. Only lines starting with "Inst " are
// considered; lines that cannot be parsed are logged and skipped.
func ParseDryRunOutput(output string) types.UpdateSet {
	set := types.UpdateSet{}
	cache := newVersionCache()
	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimRight(raw, "\r")
		if !strings.HasPrefix(line, instPrefix) {
			continue
		}
		update, err := ParseInstLine(line)
		if err != nil {
			log.Debug().
				Str("line", line).
				Err(err).
				Msg("skipping unparseable Inst line")
			continue
		}
		if !cache.valid(leadingVersion(update.Version)) {
			log.Debug().
				Str("package", update.Package).
				Str("version", update.Version).
				Msg("version is not a Debian version")
		}
		set.Add(update)
	}
	return set
}

// ParseInstLine parses a single "Inst <package> [<version-info>]" line.
//
// The version is the first delimited term after the package token with
// every bracket and parenthesis removed and whitespace collapsed, so
// "Inst nginx [1.18.0-1 (1.18.0-0)]" gives "1.18.0-1 1.18.0-0". Lines
// for new installs carry no bracket term; for those the first token of
// the parenthesized candidate term is used.
func ParseInstLine(line string) (types.PendingUpdate, error) {
	if !strings.HasPrefix(line, instPrefix) {
		return types.PendingUpdate{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("line does not start with Inst")
	}
	rest := strings.TrimLeft(strings.TrimPrefix(line, instPrefix), " \t")
	pkg := rest
	if end := strings.IndexAny(rest, " \t"); end >= 0 {
		pkg = rest[:end]
		rest = strings.TrimLeft(rest[end:], " \t")
	} else {
		rest = ""
	}
	if pkg == "" || strings.ContainsAny(pkg, "[]()") {
		return types.PendingUpdate{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("Inst line has no package token")
	}

	term, ok := leadingTerm(rest)
	if !ok {
		return types.PendingUpdate{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("Inst line has no version term for " + pkg)
	}
	version := stripDelimiters(term)
	if term[0] == '(' {
		version = leadingVersion(version)
	}
	if version == "" {
		return types.PendingUpdate{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("Inst line has an empty version for " + pkg)
	}
	return types.PendingUpdate{Package: pkg, Version: version}, nil
}

// FormatInstLine renders an update back into the form ParseInstLine
// accepts.
func FormatInstLine(update types.PendingUpdate) string {
	return instPrefix + update.Package + " [" + update.Version + "]"
}

// leadingTerm returns the balanced bracket or parenthesis group that
// opens value.
func leadingTerm(value string) (string, bool) {
	if value == "" || (value[0] != '[' && value[0] != '(') {
		return "", false
	}
	depth := 0
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
			if depth == 0 {
				return value[:i+1], true
			}
		}
	}
	return "", false
}

func stripDelimiters(value string) string {
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '(', ')':
			return ' '
		}
		return r
	}, value)
	return strings.Join(strings.Fields(stripped), " ")
}

func leadingVersion(version string) string {
	fields := strings.Fields(version)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
