// Package nopasswordlog reports zap logger calls that pass passwords,
// password hashes or session tokens.
package nopasswordlog

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

const zapPackage = "go.uber.org/zap"

var Analyzer = &analysis.Analyzer{
	Name:     "nopasswordlog",
	Doc:      "reports zap logger calls whose arguments reference a password, password hash or token",
	Run:      run,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

// sensitiveNames are compared in lower case.
var sensitiveNames = map[string]struct{}{
	"password":     {},
	"passwordhash": {},
	"token":        {},
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	inspect.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || !isZapLogger(pass.TypesInfo.TypeOf(sel.X)) {
			return
		}

		for _, arg := range call.Args {
			if name, found := sensitiveIdent(arg); found {
				pass.Reportf(arg.Pos(), "%s must not be logged", name)
			}
		}
	})

	return nil, nil
}

func isZapLogger(t types.Type) bool {
	if t == nil {
		return false
	}
	if pointer, ok := t.(*types.Pointer); ok {
		t = pointer.Elem()
	}
	named, ok := t.(*types.Named)
	if !ok || named.Obj().Pkg() == nil {
		return false
	}

	name := named.Obj().Name()
	return named.Obj().Pkg().Path() == zapPackage && (name == "Logger" || name == "SugaredLogger")
}

func sensitiveIdent(expr ast.Expr) (string, bool) {
	var found string
	ast.Inspect(expr, func(n ast.Node) bool {
		if found != "" {
			return false
		}
		if ident, ok := n.(*ast.Ident); ok {
			if _, bad := sensitiveNames[strings.ToLower(ident.Name)]; bad {
				found = ident.Name
			}
		}
		return true
	})

	return found, found != ""
}
