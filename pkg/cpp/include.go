package cpp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by resolvers when no file matches an include
var ErrNotFound = errors.New("file not found")

// IncludeRequest describes one #include
type IncludeRequest struct {
	Name   string // header name without delimiters
	Angled bool   // <name> rather than "name"
	Next   bool   // #include_next: search after the directory of From
	From   string // path of the including file
	Index  int    // search path index From was found through, or -1
}

// Source is a resolved include
type Source struct {
	Path    string
	Content string
	Index   int // search path index the file was found through, or -1
}

// IncludeResolver locates the files named by #include directives
type IncludeResolver interface {
	Resolve(req IncludeRequest) (*Source, error)
}

// FileResolver resolves includes on the file system. Quoted includes search the
// directory of the including file, then QuotePaths, then SystemPaths; angled includes
// skip the including directory.
type FileResolver struct {
	QuotePaths  []string
	SystemPaths []string
}

// NewFileResolver creates a resolver over the given search paths
func NewFileResolver(quotePaths, systemPaths []string) *FileResolver {
	return &FileResolver{QuotePaths: quotePaths, SystemPaths: systemPaths}
}

func (r *FileResolver) searchPath() []string {
	paths := make([]string, 0, len(r.QuotePaths)+len(r.SystemPaths))
	paths = append(paths, r.QuotePaths...)
	return append(paths, r.SystemPaths...)
}

// Resolve implements IncludeResolver
func (r *FileResolver) Resolve(req IncludeRequest) (*Source, error) {
	if filepath.IsAbs(req.Name) {
		return readSource(req.Name, -1)
	}
	if !req.Angled && !req.Next {
		path := filepath.Join(filepath.Dir(req.From), req.Name)
		if src, err := readSource(path, -1); err == nil {
			return src, nil
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	start := 0
	if req.Next && req.Index >= 0 {
		start = req.Index + 1
	}
	paths := r.searchPath()
	for i := start; i < len(paths); i++ {
		src, err := readSource(filepath.Join(paths[i], req.Name), i)
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %w", req.Name, ErrNotFound)
}

func readSource(path string, index int) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return &Source{Path: filepath.Clean(path), Content: string(data), Index: index}, nil
}

// MapResolver serves includes from memory, keyed by path. A quoted include is looked up
// next to the including file first, then by its name alone.
type MapResolver map[string]string

// Resolve implements IncludeResolver
func (m MapResolver) Resolve(req IncludeRequest) (*Source, error) {
	if !req.Angled {
		path := filepath.ToSlash(filepath.Join(filepath.Dir(req.From), req.Name))
		if content, ok := m[path]; ok && !req.Next {
			return &Source{Path: path, Content: content, Index: -1}, nil
		}
	}
	if content, ok := m[req.Name]; ok && !(req.Next && req.Index == 0) {
		return &Source{Path: req.Name, Content: content, Index: 0}, nil
	}
	return nil, fmt.Errorf("%s: %w", req.Name, ErrNotFound)
}
