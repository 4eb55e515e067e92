// Package compiler runs the whole pipeline: lexing, parsing, optimization
// and LLVM IR generation.
package compiler

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/coreos/pkg/capnslog"
	"github.com/llir/llvm/ir"
	"github.com/mhbemani/minic/ast"
	"github.com/mhbemani/minic/codegen"
	"github.com/mhbemani/minic/lexer"
	"github.com/mhbemani/minic/optimizer"
	"github.com/mhbemani/minic/parser"
	"github.com/ztrue/tracerr"
)

// Version is checked against the requires constraint of minic.yaml.
const Version = "0.3.0"

var plog = capnslog.NewPackageLogger("github.com/mhbemani/minic", "compiler")

type Options struct {
	Optimize    bool
	UnrollLimit int
}

func DefaultOptions() Options {
	return Options{
		Optimize:    true,
		UnrollLimit: optimizer.DefaultUnrollLimit,
	}
}

type Result struct {
	Program *ast.Program
	Module  *ir.Module
	Changes []optimizer.Change
}

// IR renders the generated module as LLVM assembly.
func (r *Result) IR() string {
	return r.Module.String()
}

// Compile reads a program from r. name is used in diagnostics. The first
// failing stage aborts the pipeline.
func Compile(name string, r io.Reader, opts Options) (*Result, error) {
	start := time.Now()
	prog, err := parser.NewParser(lexer.NewLexer(r, name)).Parse()
	if err != nil {
		return nil, err
	}
	plog.Debugf("parsed %s in %s", name, time.Since(start))

	res := &Result{Program: prog}

	if opts.Optimize {
		start = time.Now()
		o := optimizer.New(optimizer.Options{UnrollLimit: opts.UnrollLimit})
		o.Optimize(prog)
		res.Changes = o.Changes()
		plog.Debugf("optimized %s in %s", name, time.Since(start))
	}

	start = time.Now()
	res.Module, err = codegen.New().Generate(prog)
	if err != nil {
		return nil, err
	}
	plog.Debugf("generated %s in %s", name, time.Since(start))

	return res, nil
}

func CompileString(name, src string, opts Options) (*Result, error) {
	return Compile(name, strings.NewReader(src), opts)
}

func CompileFile(path string, opts Options) (*Result, error) {
	handle, err := os.Open(path)
	if err != nil {
		return nil, tracerr.Wrap(err)
	}
	defer handle.Close()

	return Compile(path, handle, opts)
}
