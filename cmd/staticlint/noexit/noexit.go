// Package noexit reports calls in main.main that terminate the process
// without running deferred functions: os.Exit, the log.Fatal family and
// the Fatal methods of zap loggers. The todotracker entry point relies on
// its deferred logger sync, so main returns or panics instead.
package noexit

import (
	"go/ast"
	"go/types"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"
)

var Analyzer = &analysis.Analyzer{
	Name:     "noexit",
	Doc:      "reports os.Exit, log.Fatal* and zap Fatal* calls in main.main",
	Run:      run,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

// exitingFuncs maps a package path to the functions and methods of that
// package which never return.
var exitingFuncs = map[string]map[string]struct{}{
	"os":              {"Exit": {}},
	"log":             {"Fatal": {}, "Fatalf": {}, "Fatalln": {}},
	"go.uber.org/zap": {"Fatal": {}, "Fatalf": {}, "Fatalln": {}, "Fatalw": {}},
}

func run(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	inspect.Preorder([]ast.Node{(*ast.FuncDecl)(nil)}, func(n ast.Node) {
		fn := n.(*ast.FuncDecl)
		if fn.Name.Name != "main" || fn.Recv != nil || fn.Body == nil {
			return
		}
		if isGoBuildCacheFile(pass.Fset.File(fn.Pos()).Name()) {
			return
		}

		ast.Inspect(fn.Body, func(n ast.Node) bool {
			// Deferred work inside a closure runs on its own schedule.
			if _, ok := n.(*ast.FuncLit); ok {
				return false
			}
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			if name, exits := exitingCallee(pass.TypesInfo, call); exits {
				pass.Reportf(call.Pos(), "avoid %s in main.main: deferred calls do not run", name)
			}
			return true
		})
	})

	return nil, nil
}

func exitingCallee(info *types.Info, call *ast.CallExpr) (string, bool) {
	callee, ok := typeutil.Callee(info, call).(*types.Func)
	if !ok || callee.Pkg() == nil {
		return "", false
	}

	names, ok := exitingFuncs[callee.Pkg().Path()]
	if !ok {
		return "", false
	}
	if _, ok := names[callee.Name()]; !ok {
		return "", false
	}

	return callee.Pkg().Name() + "." + callee.Name(), true
}

func isGoBuildCacheFile(path string) bool {
	path = filepath.ToSlash(path)
	return strings.Contains(path, "/go-build/") || strings.Contains(path, `\go-build\`)
}
