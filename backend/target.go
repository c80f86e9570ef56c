package backend

import (
	"runtime"

	"github.com/arxlang/irx/ast"
)

var hostTargets = map[string]ast.Target{
	"linux/amd64": {
		Triple:     "x86_64-pc-linux-gnu",
		DataLayout: "e-m:e-p270:32:32-p271:32:32-p272:64:64-i64:64-i128:128-f80:128-n8:16:32:64-S128",
	},
	"linux/arm64": {
		Triple:     "aarch64-unknown-linux-gnu",
		DataLayout: "e-m:e-i8:8:32-i16:16:32-i64:64-i128:128-n32:64-S128",
	},
	"darwin/arm64": {
		Triple:     "arm64-apple-macosx11.0.0",
		DataLayout: "e-m:o-i64:64-i128:128-n32:64-S128",
	},
	"darwin/amd64": {
		Triple:     "x86_64-apple-macosx10.15.0",
		DataLayout: "e-m:o-p270:32:32-p271:32:32-p272:64:64-i64:64-i128:128-f80:128-n8:16:32:64-S128",
	},
	"windows/amd64": {
		Triple:     "x86_64-pc-windows-msvc",
		DataLayout: "e-m:w-p270:32:32-p271:32:32-p272:64:64-i64:64-i128:128-f80:128-n8:16:32:64-S128",
	},
}

// HostTarget returns the target for a GOOS/GOARCH pair.
func HostTarget(goos, goarch string) (ast.Target, bool) {
	t, ok := hostTargets[goos+"/"+goarch]
	return t, ok
}

// Resolve fills the empty fields of t from the running host. On an unknown
// host the fields stay empty and llc picks its own default.
func Resolve(t ast.Target) ast.Target {
	host, _ := HostTarget(runtime.GOOS, runtime.GOARCH)
	if t.Triple == "" {
		t.Triple = host.Triple
	}
	if t.DataLayout == "" {
		t.DataLayout = host.DataLayout
	}
	return t
}
