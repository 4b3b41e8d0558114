package errors

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// palette styles each part of a rendered CLIError.
type palette struct {
	label, message, category func(a ...interface{}) string
	usage, usageText         func(a ...interface{}) string
	fix, bullet              func(a ...interface{}) string
}

var (
	colored = palette{
		label:     color.New(color.FgRed, color.Bold).SprintFunc(),
		message:   color.New(color.FgRed).SprintFunc(),
		category:  color.New(color.FgYellow).SprintFunc(),
		usage:     color.New(color.FgCyan, color.Bold).SprintFunc(),
		usageText: color.New(color.FgCyan).SprintFunc(),
		fix:       color.New(color.FgGreen, color.Bold).SprintFunc(),
		bullet:    color.New(color.FgGreen).SprintFunc(),
	}
	plain = palette{
		label:     fmt.Sprint,
		message:   fmt.Sprint,
		category:  fmt.Sprint,
		usage:     fmt.Sprint,
		usageText: fmt.Sprint,
		fix:       fmt.Sprint,
		bullet:    fmt.Sprint,
	}
)

// FormatErrorPlain renders err without escape codes, as written to a log
// file or a non-terminal stderr.
func FormatErrorPlain(err *CLIError) string {
	if err == nil {
		return ""
	}
	return render(err, plain)
}

// render lays out a CLIError as a headline, an optional usage line and the
// remediation steps, separated by blank lines:
//
//	Error [Argument Error]: invalid ref expression "!(nope)": unknown keyword
//
//	Usage: !(latestTag[+N|-N]) | !(latestCommit[+N]) | ...
//
//	To fix this:
//	  • Keywords are latestTag, latestCommit and commit
func render(err *CLIError, p palette) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s]: %s\n", p.label("Error"), p.category(err.Category.String()), p.message(err.Message))

	if err.Usage != "" {
		fmt.Fprintf(&sb, "\n%s%s\n", p.usage("Usage: "), p.usageText(err.Usage))
	}

	if len(err.Remediation) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", p.fix("To fix this:"))
		for _, step := range err.Remediation {
			fmt.Fprintf(&sb, "  %s %s\n", p.bullet("•"), step)
		}
	}
	return sb.String()
}

// Fprint writes err to w. A CLIError anywhere in the chain keeps its category
// and remediation; anything else is reported as a runtime error. Colors
// follow fatih/color's terminal detection, which honors NO_COLOR.
func Fprint(w io.Writer, err error) {
	if err == nil {
		return
	}
	cliErr := AsCLIError(err)
	if cliErr == nil {
		cliErr = &CLIError{Category: Runtime, Message: err.Error(), Cause: err}
	}
	p := colored
	if color.NoColor {
		p = plain
	}
	fmt.Fprint(w, render(cliErr, p))
}
