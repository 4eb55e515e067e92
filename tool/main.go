package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/alecthomas/participle"

	. "github.com/dave/jennifer/jen"
)

type SumDecls struct {
	Sums []*Sum `@@*`
}

type Sum struct {
	Name     string   `"sum" @Ident "="`
	Variants []string `@Ident ("|" @Ident)* ";"`
}

// Validate rejects a variant listed twice in one sum; the generated marker
// methods would collide.
func (s *SumDecls) Validate() error {
	seen := map[[2]string]bool{}
	for _, sum := range s.Sums {
		for _, v := range sum.Variants {
			key := [2]string{sum.Name, v}
			if seen[key] {
				return fmt.Errorf("variant %s listed twice in %s", v, sum.Name)
			}
			seen[key] = true
		}
	}
	return nil
}

func GenerateMarkers(pkgname string, s *SumDecls) string {
	f := NewFile(pkgname)
	f.HeaderComment("Code generated by adtGen. DO NOT EDIT.")

	for _, sum := range s.Sums {
		for _, variant := range sum.Variants {
			f.Func().Params(Id("v").Id(variant)).Id("is_" + sum.Name).Params().Block()
		}
	}

	return fmt.Sprintf("%#v", f)
}

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: adtGen <input.adt> <output.go> <package>")
		os.Exit(2)
	}

	parser := participle.MustBuild(&SumDecls{})

	in := os.Args[1]
	out := os.Args[2]
	pkgname := os.Args[3]

	inData, err := ioutil.ReadFile(in)
	if err != nil {
		panic(err)
	}

	decls := SumDecls{}
	err = parser.ParseBytes(inData, &decls)
	if err != nil {
		panic(err)
	}
	if err := decls.Validate(); err != nil {
		panic(err)
	}

	err = ioutil.WriteFile(out, []byte(GenerateMarkers(pkgname, &decls)), 0644)
	if err != nil {
		panic(err)
	}
}
