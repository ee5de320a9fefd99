// Package web holds the page served by the schedule monitor.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// DevModeEnv switches GetAssets to the files in the source tree, so the page
// can be edited without rebuilding the binary.
const DevModeEnv = "EVTSCHED_MONITOR_DEV"

//go:embed dist/*
var dist embed.FS

// GetAssets returns the file system the monitor serves under "/".
func GetAssets() http.FileSystem {
	if devMode() {
		return http.Dir(sourceDist())
	}

	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(sub)
}

func sourceDist() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("web: source location unknown")
	}

	return filepath.Join(filepath.Dir(file), "dist")
}

func devMode() bool {
	on, err := strconv.ParseBool(os.Getenv(DevModeEnv))
	return err == nil && on
}
