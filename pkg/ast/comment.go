package ast

import "cppparser/pkg/diag"

// DoxygenComment is a documentation comment attached to the declaration that follows it
type DoxygenComment struct {
	Raw        string            // Original comment text
	Brief      string            // Brief description
	Detailed   string            // Detailed description
	Params     map[string]string // Parameter documentation
	TParams    map[string]string // Template parameter documentation
	Returns    string            // Return value documentation
	Throws     []string          // Exception documentation
	Since      string            // Since version
	Deprecated string            // Deprecation notice
	See        []string          // See also references
	CustomTags map[string]string // Tags without a dedicated field
	Loc        diag.Location     // Position of the comment start
}

// HasComment reports whether d carries documentation
func HasComment(d Declaration) bool {
	c := d.Base().Comment
	return c != nil && c.Raw != ""
}
