package compiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mhbemani/minic/ast"
	"github.com/mhbemani/minic/errors"
	"github.com/ztrue/tracerr"
)

func mustCompile(t *testing.T, src string, opts Options) *Result {
	t.Helper()

	res, err := CompileString("test.mc", src, opts)
	if err != nil {
		t.Fatalf("%q: %v", src, err)
	}
	return res
}

func TestCompile_Assignment(t *testing.T) {
	mustCompile(t, "int a = 5; a = 6;", DefaultOptions())

	_, err := CompileString("test.mc", "a = 6;", DefaultOptions())
	cerr, ok := tracerr.Unwrap(err).(errors.CodegenError)
	if !ok || cerr.Kind != errors.Undeclared {
		t.Fatalf("expected an undeclared variable error, got %v", err)
	}
}

func TestCompile_TypeMismatch(t *testing.T) {
	_, err := CompileString("test.mc", `int a = "x";`, DefaultOptions())
	cerr, ok := tracerr.Unwrap(err).(errors.CodegenError)
	if !ok || cerr.Kind != errors.TypeMismatch {
		t.Fatalf("expected a type mismatch, got %v", err)
	}
}

func TestCompile_ParseErrorStops(t *testing.T) {
	_, err := CompileString("test.mc", "int a = ;", DefaultOptions())
	if _, ok := tracerr.Unwrap(err).(errors.UnexpectedToken); !ok {
		t.Fatalf("expected the parse error, got %T: %v", err, err)
	}
}

func TestCompile_LeftToRight(t *testing.T) {
	res := mustCompile(t, "int a = 2 + 3 * 4;", DefaultOptions())

	decl := res.Program.Statements[0].(ast.VarDecl)
	if got := ast.ExprString(decl.Value); got != "2 + 3 * 4" {
		t.Fatalf("unexpected tree %s", got)
	}
	if root := decl.Value.(ast.BinaryOp); root.Op != ast.MUL {
		t.Fatalf("expected (2+3)*4, root is %s", root.Op)
	}
	if !strings.Contains(res.IR(), "add i32 2, 3") {
		t.Fatalf("expected 2+3 to be computed first:\n%s", res.IR())
	}
}

func TestCompile_Unroll(t *testing.T) {
	src := "for(int i=0;i<3;i=i+1){print(i);}"

	unrolled := mustCompile(t, src, DefaultOptions())
	if strings.Contains(unrolled.IR(), "for.cond") {
		t.Fatalf("loop should have been unrolled:\n%s", unrolled.IR())
	}
	if len(unrolled.Changes) != 1 {
		t.Fatalf("expected one change, got %v", unrolled.Changes)
	}
	for _, n := range []string{"i32 0)", "i32 1)", "i32 2)"} {
		if !strings.Contains(unrolled.IR(), n) {
			t.Fatalf("expected a print of %s:\n%s", n, unrolled.IR())
		}
	}

	plain := mustCompile(t, src, Options{})
	if !strings.Contains(plain.IR(), "for.cond") {
		t.Fatalf("loop should be kept without optimization:\n%s", plain.IR())
	}
	if plain.Changes != nil {
		t.Fatalf("no changes expected without optimization")
	}
}

func TestCompile_SameErrorsOptimized(t *testing.T) {
	tests := []struct {
		src  string
		kind errors.CodegenKind
	}{
		{"int i = 5; for (int i = 0; i < 2; i++) { print(i); }", errors.Redeclared},
		{"for (j = 0; j < 2; j++) { print(j); }", errors.Undeclared},
		{`string s = "a"; for (s = 0; s < 2; s++) { print(1); }`, errors.TypeMismatch},
	}

	for _, tt := range tests {
		for _, opts := range []Options{{}, DefaultOptions()} {
			_, err := CompileString("test.mc", tt.src, opts)
			cerr, ok := tracerr.Unwrap(err).(errors.CodegenError)
			if !ok || cerr.Kind != tt.kind {
				t.Fatalf("%q with %+v: expected %s, got %v", tt.src, opts, tt.kind, err)
			}
		}
	}
}

func TestCompile_FloatLoopKept(t *testing.T) {
	src := "float f; for (f = 0; f < 2; f = f + 1) { print(f); }"
	for _, opts := range []Options{{}, DefaultOptions()} {
		res := mustCompile(t, src, opts)
		if !strings.Contains(res.IR(), `c"%f\0A\00"`) || !strings.Contains(res.IR(), "for.cond") {
			t.Fatalf("float loop should print floats in a real loop with %+v:\n%s", opts, res.IR())
		}
	}
}

func TestCompile_Fold(t *testing.T) {
	res := mustCompile(t, "if(true){print(1);}else{print(2);}", DefaultOptions())
	if got := res.Program.String(); got != "print(1);\n" {
		t.Fatalf("expected the branch to be folded, got %q", got)
	}
	if strings.Contains(res.IR(), "if.then") {
		t.Fatalf("folded branch should not be emitted:\n%s", res.IR())
	}
}

func TestCompile_Arrays(t *testing.T) {
	res := mustCompile(t, "array arr = [1,2,3]; print(arr); print(length(arr));", DefaultOptions())
	if !strings.Contains(res.IR(), `c"[%d, %d, %d]\0A\00"`) {
		t.Fatalf("array print format missing:\n%s", res.IR())
	}
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.mc")
	if err := os.WriteFile(path, []byte(`string s = concat("ab", "cd"); print(s);`), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := CompileFile(path, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.IR(), `c"ab\00"`) {
		t.Fatalf("expected the literal in the module:\n%s", res.IR())
	}

	if _, err := CompileFile(filepath.Join(t.TempDir(), "missing.mc"), DefaultOptions()); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
