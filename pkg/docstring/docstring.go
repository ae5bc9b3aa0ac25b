// Package docstring parses Doxygen comment blocks into ast.DoxygenComment values
package docstring

import (
	"strings"

	"cppparser/pkg/ast"
	"cppparser/pkg/diag"
)

// IsDoxygen reports whether a comment uses one of the Doxygen markers
func IsDoxygen(comment string) bool {
	comment = strings.TrimSpace(comment)
	return strings.HasPrefix(comment, "/**") ||
		strings.HasPrefix(comment, "/*!") ||
		strings.HasPrefix(comment, "///") ||
		strings.HasPrefix(comment, "//!")
}

// Parse parses a Doxygen comment block. Consecutive line comments joined with newlines
// are accepted as one block.
func Parse(comment string, loc diag.Location) *ast.DoxygenComment {
	if strings.TrimSpace(comment) == "" {
		return nil
	}

	doc := &ast.DoxygenComment{
		Raw:        comment,
		Params:     make(map[string]string),
		TParams:    make(map[string]string),
		CustomTags: make(map[string]string),
		Loc:        loc,
	}

	var currentTag string
	var currentContent []string
	for _, line := range cleanLines(comment) {
		if isTag(line) {
			if currentTag != "" {
				setTag(doc, currentTag, strings.Join(currentContent, " "))
			}
			parts := strings.SplitN(line[1:], " ", 2)
			currentTag = parts[0]
			currentContent = currentContent[:0]
			if len(parts) > 1 {
				currentContent = append(currentContent, strings.TrimSpace(parts[1]))
			}
			continue
		}
		if currentTag != "" {
			currentContent = append(currentContent, line)
			continue
		}
		// main description: first line is the brief
		switch {
		case doc.Brief == "":
			doc.Brief = line
		case doc.Detailed == "":
			doc.Detailed = line
		default:
			doc.Detailed += " " + line
		}
	}
	if currentTag != "" {
		setTag(doc, currentTag, strings.Join(currentContent, " "))
	}
	return doc
}

// cleanLines strips comment markers and leading asterisks, dropping blank lines
func cleanLines(comment string) []string {
	lines := strings.Split(comment, "\n")
	var out []string
	for i, line := range lines {
		clean := strings.TrimSpace(line)
		for _, marker := range []string{"///<", "//!<", "///", "//!"} {
			if strings.HasPrefix(clean, marker) {
				clean = clean[len(marker):]
				break
			}
		}
		if i == 0 {
			for _, marker := range []string{"/**<", "/*!<", "/**", "/*!"} {
				if strings.HasPrefix(clean, marker) {
					clean = clean[len(marker):]
					break
				}
			}
		}
		if i == len(lines)-1 {
			clean = strings.TrimSuffix(clean, "*/")
		}
		clean = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(clean), "*"))
		if clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func isTag(line string) bool {
	if len(line) < 2 || (line[0] != '@' && line[0] != '\\') {
		return false
	}
	c := line[1]
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// setTag stores a tag value
func setTag(doc *ast.DoxygenComment, tag, content string) {
	switch tag {
	case "brief", "short":
		doc.Brief = content
	case "details", "detailed":
		doc.Detailed = content
	case "param", "param[in]", "param[out]", "param[in,out]":
		if name, text, ok := strings.Cut(content, " "); ok {
			doc.Params[name] = strings.TrimSpace(text)
		} else if content != "" {
			doc.Params[content] = ""
		}
	case "tparam":
		if name, text, ok := strings.Cut(content, " "); ok {
			doc.TParams[name] = strings.TrimSpace(text)
		} else if content != "" {
			doc.TParams[content] = ""
		}
	case "return", "returns", "result":
		doc.Returns = content
	case "throw", "throws", "exception":
		doc.Throws = append(doc.Throws, content)
	case "since":
		doc.Since = content
	case "deprecated":
		doc.Deprecated = content
	case "see", "sa":
		doc.See = append(doc.See, content)
	default:
		if prev, ok := doc.CustomTags[tag]; ok && prev != "" {
			content = prev + "\n" + content
		}
		doc.CustomTags[tag] = content
	}
}
