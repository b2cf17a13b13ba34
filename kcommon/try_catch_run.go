package kcommon

import (
	"context"

	"github.com/xinkaiwang/workerblitz/kerror"
	"github.com/xinkaiwang/workerblitz/klogging"
)

// TryCatchRun runs fn and converts a panic into a returned *Kerror. A
// non-error panic is a fatal: we never throw those on purpose.
func TryCatchRun(ctx context.Context, fn func()) (ret *kerror.Kerror) {
	defer func() {
		r := recover()
		if r != nil {
			if ke, ok := r.(*kerror.Kerror); ok {
				ret = ke
			} else if err, ok := r.(error); ok {
				ret = kerror.Wrap(err, "UnknownError", "", true)
			} else {
				klogging.Fatal(ctx).WithPanic(r).Log("NonErrorPanic", "")
			}
		}
	}()
	fn()
	return
}
