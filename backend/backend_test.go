package backend

import (
	"testing"

	"github.com/arxlang/irx/ast"
	"github.com/nalgeon/be"
)

func TestSignatureEqualIgnoresParamNames(t *testing.T) {
	a := Signature{Name: "f", Params: []Param{{"x", ast.Int32}}, Ret: ast.Int32}
	b := Signature{Name: "f", Params: []Param{{"y", ast.Int32}}, Ret: ast.Int32}
	be.True(t, a.Equal(b))

	c := Signature{Name: "f", Params: []Param{{"x", ast.Int64}}, Ret: ast.Int32}
	be.True(t, !a.Equal(c))

	d := Signature{Name: "f", Ret: ast.Int32}
	be.True(t, !a.Equal(d))
}

func TestSignatureString(t *testing.T) {
	sig := Signature{Name: "add", Params: []Param{{"a", ast.Int32}, {"b", ast.Int32}}, Ret: ast.Int32}
	be.Equal(t, sig.String(), "add(i32, i32) -> i32")
}

func TestHostTarget(t *testing.T) {
	tg, ok := HostTarget("linux", "amd64")
	be.True(t, ok)
	be.Equal(t, tg.Triple, "x86_64-pc-linux-gnu")

	_, ok = HostTarget("plan9", "386")
	be.True(t, !ok)
}

func TestResolveKeepsExplicitFields(t *testing.T) {
	tg := Resolve(ast.Target{Triple: "wasm32-unknown-unknown", DataLayout: "e-m:e"})
	be.Equal(t, tg.Triple, "wasm32-unknown-unknown")
	be.Equal(t, tg.DataLayout, "e-m:e")
}

func TestOpcodeString(t *testing.T) {
	be.Equal(t, SDiv.String(), "sdiv")
	be.Equal(t, FRem.String(), "frem")
}
