package ffmpeg

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// LibPathEnv overrides the location of the shim library. It may name the
// library file or the directory containing it.
const LibPathEnv = "HWCODEC_LIB_PATH"

// ErrLibraryNotLoaded is returned by every backend when the shim library
// could not be loaded.
var ErrLibraryNotLoaded = errors.New("hwcodec shim library not loaded")

// codeOK is the shim's success return; every failure is -1.
const codeOK = 0

func libName() string {
	if runtime.GOOS == "darwin" {
		return "libhwcodec.dylib"
	}
	return "libhwcodec.so"
}

// libPaths returns the locations tried by Load, highest priority first.
func libPaths(override string) []string {
	name := libName()
	var paths []string

	addOverride := func(p string) {
		if p == "" {
			return
		}
		if fi, err := os.Stat(p); err == nil && fi.IsDir() {
			p = filepath.Join(p, name)
		}
		paths = append(paths, p)
	}
	addOverride(override)
	addOverride(os.Getenv(LibPathEnv))

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, name),
			filepath.Join(exeDir, "..", "lib", name),
		)
	}

	if moduleRoot := findModuleRoot(); moduleRoot != "" {
		paths = append(paths,
			filepath.Join(moduleRoot, "build", name),
			filepath.Join(moduleRoot, "build", "ffi", name),
		)
	}

	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			name,
			"/usr/local/lib/"+name,
			"/opt/homebrew/lib/"+name,
		)
	case "linux":
		paths = append(paths,
			name,
			"/usr/local/lib/"+name,
			"/usr/lib/"+name,
		)
	}
	return paths
}

// findModuleRoot walks up from the working directory to the directory
// containing go.mod.
func findModuleRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
