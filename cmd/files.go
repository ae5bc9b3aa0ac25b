package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"cppparser/pkg/config"
)

// Directories never descended into
var excludeDirs = []string{"build", "vendor", "third_party", ".git", "node_modules"}

// findCppFiles expands targets into the C and C++ sources they name. Directories are
// walked recursively; a file given explicitly is kept whatever its extension.
func findCppFiles(targets []string, c *config.Config) ([]string, error) {
	var files []string
	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, target)
			continue
		}

		err = filepath.Walk(target, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				if path == target {
					return nil
				}
				for _, exclude := range excludeDirs {
					if info.Name() == exclude {
						return filepath.SkipDir
					}
				}
				return nil
			}

			if isCppSource(path) && !c.Ignored(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isCppSource(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".h", ".hh", ".hpp", ".hxx", ".h++", ".c", ".cc", ".cpp", ".cxx", ".c++", ".inl", ".ipp", ".tcc":
		return true
	}
	return false
}
