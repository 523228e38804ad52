package noexit

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"
)

// Package a is a main package; package b only declares a func named main.
func Test(t *testing.T) {
	analysistest.Run(t, analysistest.TestData(), Analyzer, "a", "b")
}

func TestIsGoBuildCacheFile(t *testing.T) {
	testCases := map[string]bool{
		"/root/.cache/go-build/ab/cdef.go":     true,
		`C:\Users\me\go-build\ab\cdef.go`:     true,
		"/root/module/cmd/todotracker/main.go": false,
	}

	for path, want := range testCases {
		if got := isGoBuildCacheFile(path); got != want {
			t.Errorf("isGoBuildCacheFile(%q) = %v, want %v", path, got, want)
		}
	}
}
