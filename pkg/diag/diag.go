// Package diag collects positioned diagnostics produced while preprocessing and parsing.
package diag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Severity represents how serious a diagnostic is
type Severity int

const (
	Warning Severity = iota
	Error
	Fatal
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal error"
	default:
		return "unknown"
	}
}

// Category groups diagnostics by the stage that produced them
type Category int

const (
	CategoryLexical Category = iota
	CategoryMacro
	CategoryDirective
	CategoryInclude
	CategorySyntax
	CategorySemantic
)

// String returns the string representation of the category
func (c Category) String() string {
	switch c {
	case CategoryLexical:
		return "lexical"
	case CategoryMacro:
		return "macro"
	case CategoryDirective:
		return "directive"
	case CategoryInclude:
		return "include"
	case CategorySyntax:
		return "syntax"
	case CategorySemantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// Location is a point in a source file
type Location struct {
	File   string
	Line   int
	Column int
}

// IsValid reports whether the location carries a line number
func (l Location) IsValid() bool {
	return l.Line > 0
}

// String formats the location as file:line:col
func (l Location) String() string {
	switch {
	case l.File == "" && l.Line == 0:
		return "<unknown>"
	case l.Line == 0:
		return l.File
	case l.Column == 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
}

// Diagnostic is a single reported problem
type Diagnostic struct {
	Severity Severity
	Category Category
	Location Location
	Message  string
}

// Error implements the error interface using the compiler-style line format
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Location, d.Severity, d.Message)
}

// Collector accumulates diagnostics and mirrors them to a sink and a logger
type Collector struct {
	sink      io.Writer
	logger    *slog.Logger
	maxErrors int
	diags     []*Diagnostic
	errors    int
	warnings  int
	fatal     *Diagnostic
}

// NewCollector creates a collector writing to sink. A maxErrors of zero means no limit.
func NewCollector(sink io.Writer, maxErrors int) *Collector {
	return &Collector{
		sink:      sink,
		maxErrors: maxErrors,
	}
}

// SetLogger mirrors every diagnostic to logger
func (c *Collector) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// Report records a diagnostic and returns it
func (c *Collector) Report(sev Severity, cat Category, loc Location, format string, args ...interface{}) *Diagnostic {
	d := &Diagnostic{
		Severity: sev,
		Category: cat,
		Location: loc,
		Message:  fmt.Sprintf(format, args...),
	}
	c.add(d)
	return d
}

func (c *Collector) add(d *Diagnostic) {
	switch d.Severity {
	case Warning:
		c.warnings++
	case Error:
		c.errors++
	case Fatal:
		c.errors++
		if c.fatal == nil {
			c.fatal = d
		}
	}
	c.diags = append(c.diags, d)

	if c.Limited() && d.Severity != Fatal {
		return
	}
	if c.sink != nil {
		fmt.Fprintln(c.sink, d.Error())
	}
	if c.logger != nil {
		level := slog.LevelWarn
		if d.Severity != Warning {
			level = slog.LevelError
		}
		c.logger.Log(context.Background(), level, "diag."+d.Category.String(),
			"loc", d.Location.String(),
			"severity", d.Severity.String(),
			"msg", d.Message)
	}
}

// Warnf reports a warning
func (c *Collector) Warnf(cat Category, loc Location, format string, args ...interface{}) *Diagnostic {
	return c.Report(Warning, cat, loc, format, args...)
}

// Errorf reports an error
func (c *Collector) Errorf(cat Category, loc Location, format string, args ...interface{}) *Diagnostic {
	return c.Report(Error, cat, loc, format, args...)
}

// Fatalf reports a fatal error; the returned diagnostic doubles as the error that aborts the file
func (c *Collector) Fatalf(cat Category, loc Location, format string, args ...interface{}) *Diagnostic {
	return c.Report(Fatal, cat, loc, format, args...)
}

// Diagnostics returns every diagnostic in report order
func (c *Collector) Diagnostics() []*Diagnostic {
	return c.diags
}

// ErrorCount returns the number of errors, fatal ones included
func (c *Collector) ErrorCount() int {
	return c.errors
}

// WarningCount returns the number of warnings
func (c *Collector) WarningCount() int {
	return c.warnings
}

// HasErrors reports whether any error was recorded
func (c *Collector) HasErrors() bool {
	return c.errors > 0
}

// Fatal returns the first fatal diagnostic, or nil
func (c *Collector) Fatal() *Diagnostic {
	return c.fatal
}

// Limited reports whether the error limit has been exceeded; diagnostics past the
// limit are still recorded but no longer written to the sink.
func (c *Collector) Limited() bool {
	return c.maxErrors > 0 && c.errors > c.maxErrors
}
