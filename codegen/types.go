package codegen

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/mhbemani/minic/ast"
)

var (
	Int32   = types.I32
	Int64   = types.I64
	Byte    = types.I8
	Boolean = types.I1
	Float32 = types.Float
	Float64 = types.Double

	// CString is a NUL terminated string; the error payload has the same shape.
	CString  = types.NewPointer(types.I8)
	IntArray = types.NewPointer(types.I32)
)

// llvmType maps a variable type to the type of its slot contents.
func llvmType(t ast.VarType) types.Type {
	switch t {
	case ast.Int:
		return Int32
	case ast.Bool:
		return Boolean
	case ast.Float:
		return Float32
	case ast.Char:
		return Byte
	case ast.String, ast.Error:
		return CString
	case ast.Array:
		return IntArray
	}
	panic("llvmType: unknown variable type")
}

func i32(v int64) *constant.Int {
	return constant.NewInt(Int32, v)
}

func i64(v int64) *constant.Int {
	return constant.NewInt(Int64, v)
}
