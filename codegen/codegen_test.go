package codegen

import (
	"strings"
	"testing"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"github.com/mhbemani/minic/errors"
	"github.com/mhbemani/minic/parser"
	"github.com/ztrue/tracerr"
)

func generate(t *testing.T, src string) *ir.Module {
	t.Helper()

	prog, err := parser.ParseString("test.mc", src)
	if err != nil {
		t.Fatalf("%q: parse: %v", src, err)
	}
	m, err := New().Generate(prog)
	if err != nil {
		t.Fatalf("%q: generate: %v", src, err)
	}
	return m
}

func generateErr(t *testing.T, src string) errors.CodegenError {
	t.Helper()

	prog, err := parser.ParseString("test.mc", src)
	if err != nil {
		t.Fatalf("%q: parse: %v", src, err)
	}
	m, err := New().Generate(prog)
	if err == nil {
		t.Fatalf("%q: expected an error, got module:\n%s", src, m)
	}
	cerr, ok := tracerr.Unwrap(err).(errors.CodegenError)
	if !ok {
		t.Fatalf("%q: expected CodegenError, got %T: %v", src, err, err)
	}
	return cerr
}

func contains(t *testing.T, m *ir.Module, parts ...string) {
	t.Helper()

	text := m.String()
	for _, part := range parts {
		if !strings.Contains(text, part) {
			t.Fatalf("module lacks %q:\n%s", part, text)
		}
	}
}

func TestGenerate_Declarations(t *testing.T) {
	m := generate(t, "int a = 5; a = 6;")
	contains(t, m, "define i32 @main()", "alloca i32", "store i32 5", "store i32 6", "ret i32 0")

	m = generate(t, "float f = 1; bool b; char c = 'x'; string s;")
	contains(t, m, "sitofp i32 1 to float", "store i1 false", "store i8 120")
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		src  string
		kind errors.CodegenKind
	}{
		{"a = 6;", errors.Undeclared},
		{"print(x);", errors.Undeclared},
		{`int a = "x";`, errors.TypeMismatch},
		{"float f = 1.5; int i = f;", errors.TypeMismatch},
		{"int a; int a;", errors.Redeclared},
		{"int i; for (int i = 0; i < 2; i++) {}", errors.Redeclared},
		{"int e; try {} catch (error e) {}", errors.Redeclared},
		{"if (1) {}", errors.TypeMismatch},
		{"bool b = 1 < true;", errors.TypeMismatch},
		{`string s = "a" - "b";`, errors.TypeMismatch},
		{"array a = [1, 2]; array b = [1, 2, 3]; array c = add(a, b);", errors.ArrayShape},
		{"int x = 1; array c = add(x, 1);", errors.TypeMismatch},
		{"array a = []; print(min(a));", errors.ArrayShape},
		{"array a = [1, 2]; bool c = false; if (c) { a = [1, 2, 3, 4]; } print(a);", errors.ArrayShape},
		{"array a; a = [1, 2]; a = [1];", errors.ArrayShape},
		{"array a = [1, 2]; array b = [1, 2, 3]; bool c = true; a = c ? a : b;", errors.ArrayShape},
		{"match (1) { 1 -> {} 1 -> {} }", errors.DuplicateCase},
		{`match (1) { "a" -> {} }`, errors.TypeMismatch},
		{"error(1);", errors.TypeMismatch},
		{"int x = 1; string s = x.toString();", errors.TypeMismatch},
		{`string s = "a"; string t = s.upper();`, errors.Unsupported},
		{"bool b = true; array a = [1, b];", errors.TypeMismatch},
	}

	for _, tt := range tests {
		if err := generateErr(t, tt.src); err.Kind != tt.kind {
			t.Fatalf("%q: expected %s, got %s (%v)", tt.src, tt.kind, err.Kind, err)
		}
	}
}

func TestGenerate_ErrorLocation(t *testing.T) {
	err := generateErr(t, "int a = 1;\nb = 2;")
	if err.Location.From.Line != 2 || err.Location.From.Column != 1 {
		t.Fatalf("wrong location %v", err.Location)
	}
	if !strings.Contains(err.Error(), "undeclared variable: b") {
		t.Fatalf("wrong message %q", err.Error())
	}
}

func TestGenerate_Scoping(t *testing.T) {
	generate(t, "for (int i = 0; i < 2; i++) {} for (int i = 0; i < 2; i++) {}")
	generate(t, "if (true) { int x = 1; } else { int x = 2; }")
	generate(t, "foreach (v in [1, 2]) { print(v); } int v = 3;")
	generateErr(t, "for (int i = 0; i < 2; i++) {} print(i);")
}

func TestGenerate_ArraySize(t *testing.T) {
	m := generate(t, "array a = [1, 2]; a = [3, 4]; a = add(a, 1); print(a);")
	contains(t, m, `c"[%d, %d]\0A\00"`)

	// an array declared without a value is sized by its first assignment
	m = generate(t, "array a; a = [1, 2, 3]; print(a); print(length(a));")
	contains(t, m, `c"[%d, %d, %d]\0A\00"`)
}

func TestGenerate_Print(t *testing.T) {
	m := generate(t, "array arr = [1,2,3]; print(arr); print(length(arr));")
	contains(t, m, `c"[%d, %d, %d]\0A\00"`, `c"%d\0A\00"`, "call i8* @malloc(i64 12)")

	m = generate(t, `print(true); print(1.5); print('c'); print("s"); print([]);`)
	contains(t, m, "zext i1 true to i32", "fpext float", `c"%f\0A\00"`, `c"%c\0A\00"`, `c"%s\0A\00"`, `c"[]\0A\00"`)
}

func TestGenerate_Strings(t *testing.T) {
	m := generate(t, `string a = "ab"; string b = concat(a, "cd"); string c = a + b; bool same = a == b;`)
	contains(t, m, "@strlen", "@memcpy", "@strcmp", `c"ab\00"`, `c"cd\00"`)

	// one global per distinct literal
	m = generate(t, `print("x"); print("x");`)
	if n := strings.Count(m.String(), `c"x\00"`); n != 1 {
		t.Fatalf("expected one global for \"x\", found %d", n)
	}
}

func TestGenerate_EmptyConcat(t *testing.T) {
	m := generate(t, `string s = "xy"; string a = concat("", s); string b = concat(s, "");`)
	// the empty literal still goes through strlen, so its length is 0 and
	// only the other operand's bytes and terminator are copied
	contains(t, m, `c"\00"`, `c"xy\00"`)
	if n := strings.Count(m.String(), "call i8* @malloc"); n != 2 {
		t.Fatalf("expected one allocation per concat, found %d", n)
	}
	if n := strings.Count(m.String(), "call i8* @memcpy"); n != 4 {
		t.Fatalf("expected two copies per concat, found %d", n)
	}
}

func TestGenerate_Operators(t *testing.T) {
	m := generate(t, "int a = 7 / 2; int b = 7 % 2; float f = 1 + 2.5; bool c = f > 1;")
	contains(t, m, "sdiv i32", "srem i32", "fadd float", "fcmp ogt float", "division by zero")

	m = generate(t, "int p = pow(2, 10); int q = abs(0 - 3); array xs = [3, 1, 2]; int lo = min(xs); int hi = max(xs);")
	contains(t, m, "select i1", "icmp slt i32", "icmp sgt i32")

	m = generate(t, "array xs = [1, 2]; array ys = multiply(xs, 3); array zs = divide(xs, ys); int e = xs[1];")
	contains(t, m, "mul i32", "icmp uge i32", "index out of range")
}

func TestGenerate_ControlFlow(t *testing.T) {
	m := generate(t, `
int x = 3;
if (x > 1) { print(1); } else if (x > 0) { print(2); } else { print(3); }
for (int i = 0; i < x; i++) { print(i); }
for (;;) { x = 1; }
int y = x > 2 ? 1 : 0;
match (x) { 1 -> { print("one"); } _ -> { print("other"); } }
string s = "a";
match (s) { "a" -> { print(1); } "b" -> { print(2); } }
`)
	contains(t, m, "if.then", "if.else", "if.end", "for.cond", "for.body", "for.step", "for.end", "phi i32", "switch i32", "call i32 @strcmp")

	for _, b := range m.Funcs[len(m.Funcs)-1].Blocks {
		if b.Term == nil {
			t.Fatalf("block %s has no terminator", b.Name())
		}
	}
}

func TestGenerate_TryCatch(t *testing.T) {
	m := generate(t, `try { error("bad"); } catch (error e) { print(e); print(e.toString()); }`)
	contains(t, m, "catch", "try.end", `c"bad\00"`)
	if strings.Contains(m.String(), "uncaught") {
		t.Fatalf("a caught error needs no uncaught handler:\n%s", m)
	}

	m = generate(t, "int z = 0; int q = 1 / z;")
	contains(t, m, "uncaught", `c"error: %s\0A\00"`, "ret i32 1")

	m = generate(t, `try { try { error("inner"); } catch (error a) { error("again"); } } catch (error b) { print(b); }`)
	if strings.Contains(m.String(), "uncaught") {
		t.Fatalf("nested handlers should catch everything:\n%s", m)
	}
}

func TestGenerate_Symbols(t *testing.T) {
	m := generate(t, `int a = 1; string s = "x"; for (int i = 0; i < 1; i++) {} try {} catch (error e) {}`)

	syms, err := ReadSymbols(m)
	if err != nil {
		t.Fatal(err)
	}
	expected := map[string]string{"a": "int", "s": "string", "i": "int", "e": "error"}
	for name, typ := range expected {
		if syms.Variables[name] != typ {
			t.Fatalf("expected %s to be %s, got %v", name, typ, syms.Variables)
		}
	}

	// the printed module must parse back and still carry its symbols
	parsed, err := asm.ParseString("test.ll", m.String())
	if err != nil {
		t.Fatalf("emitted IR does not parse: %v\n%s", err, m)
	}
	again, err := ReadSymbols(parsed)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Variables) != len(syms.Variables) {
		t.Fatalf("symbols changed through printing: %v vs %v", again.Variables, syms.Variables)
	}

	_, err = ReadSymbols(ir.NewModule())
	if err == nil || !strings.Contains(err.Error(), "module has no "+SymbolsGlobal) {
		t.Fatalf("expected a missing symbols error, got %v", err)
	}
	if frames := tracerr.StackTrace(err); len(frames) == 0 {
		t.Fatalf("missing symbols error carries no stack trace")
	}
}

func TestGenerate_ParsesBack(t *testing.T) {
	m := generate(t, `
int a, b = 1, 2;
float f = 0.5;
array xs = [1, 2, 3];
foreach (v in add(xs, 1)) { print(v * a); }
string s = "n=" + "1";
try { int q = b / a; print(xs[q]); } catch (error e) { print(e); }
print(a < b ? f : 2);
print(pow(f, 2));
print(-f);
print(!true);
`)
	if _, err := asm.ParseString("test.ll", m.String()); err != nil {
		t.Fatalf("emitted IR does not parse: %v\n%s", err, m)
	}
}

func TestGenerator_Reuse(t *testing.T) {
	prog, err := parser.ParseString("test.mc", "int a = 1;")
	if err != nil {
		t.Fatal(err)
	}

	g := New()
	if g.Dump() != "" {
		t.Fatalf("nothing generated yet")
	}
	first, err := g.Generate(prog)
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.Generate(prog)
	if err != nil {
		t.Fatalf("a generator should be reusable: %v", err)
	}
	if first == second || first.String() != second.String() {
		t.Fatalf("expected two equal, distinct modules")
	}
	if !strings.Contains(g.Dump(), "define i32 @main()") {
		t.Fatalf("Dump should render the last module")
	}
}
