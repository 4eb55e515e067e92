package codegen

import (
	"encoding/json"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/ztrue/tracerr"
)

// SymbolsGlobal names the global carrying the JSON symbol table of a module.
const SymbolsGlobal = "__minic_symbols"

// Symbols lists the variables a program declares, with their types.
type Symbols struct {
	Variables map[string]string `json:"variables"`
}

func registerSymbols(s Symbols, m *ir.Module) {
	data, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}

	g := m.NewGlobalDef(SymbolsGlobal, constant.NewCharArray(append(data, 0)))
	g.Immutable = true
	g.Linkage = enum.LinkagePrivate
}

// ReadSymbols extracts the symbol table embedded in m.
func ReadSymbols(m *ir.Module) (s Symbols, err error) {
	for _, g := range m.Globals {
		if g.Name() != SymbolsGlobal {
			continue
		}

		data, ok := g.Init.(*constant.CharArray)
		if !ok {
			return Symbols{}, tracerr.Errorf("%s is not a character array", SymbolsGlobal)
		}

		raw := data.X
		if n := len(raw); n > 0 && raw[n-1] == 0 {
			raw = raw[:n-1]
		}
		err = tracerr.Wrap(json.Unmarshal(raw, &s))
		return
	}

	return Symbols{}, tracerr.Errorf("module has no %s global", SymbolsGlobal)
}

// ReadSymbolsFile parses the LLVM IR file at path and reads its symbol table.
func ReadSymbolsFile(path string) (Symbols, error) {
	m, err := asm.ParseFile(path)
	if err != nil {
		return Symbols{}, tracerr.Wrap(err)
	}

	return ReadSymbols(m)
}
