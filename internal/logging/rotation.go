package logging

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const filePrefix = "ntfytoast_"

// rotate removes the oldest "ntfytoast_*.log" files in dir so that at most
// maxFiles remain. Other files are left alone.
func rotate(dir string, maxFiles int) error {
	if maxFiles <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	type logFile struct {
		path string
		mod  int64
	}
	var files []logFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		f := logFile{path: filepath.Join(dir, name)}
		if info, err := entry.Info(); err == nil {
			f.mod = info.ModTime().UnixNano()
		}
		files = append(files, f)
	}
	if len(files) <= maxFiles {
		return nil
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].mod == files[j].mod {
			return files[i].path < files[j].path
		}
		return files[i].mod < files[j].mod
	})
	for _, f := range files[:len(files)-maxFiles] {
		os.Remove(f.path)
	}
	return nil
}
