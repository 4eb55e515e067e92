package main

import (
	"strings"
	"testing"

	"github.com/alecthomas/participle"
)

func parseDecls(t *testing.T, src string) *SumDecls {
	t.Helper()

	decls := &SumDecls{}
	if err := participle.MustBuild(&SumDecls{}).ParseString(src, decls); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return decls
}

func TestGenerateMarkers(t *testing.T) {
	decls := parseDecls(t, `
// comment
sum Expr = IntLit | VarRef;
sum Stmt = Print;
`)

	if len(decls.Sums) != 2 || len(decls.Sums[0].Variants) != 2 {
		t.Fatalf("unexpected declarations: %+v", decls.Sums)
	}

	out := GenerateMarkers("ast", decls)
	for _, want := range []string{
		"// Code generated by adtGen. DO NOT EDIT.",
		"package ast",
		"func (v IntLit) is_Expr() {}",
		"func (v VarRef) is_Expr() {}",
		"func (v Print) is_Stmt() {}",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output is missing %q:\n%s", want, out)
		}
	}
}

func TestValidateDuplicate(t *testing.T) {
	decls := parseDecls(t, `sum Expr = IntLit | IntLit;`)
	if err := decls.Validate(); err == nil {
		t.Fatalf("expected duplicate variant to be rejected")
	}

	decls = parseDecls(t, `sum A = X; sum B = X;`)
	if err := decls.Validate(); err != nil {
		t.Fatalf("a variant may belong to two sums: %v", err)
	}
}
