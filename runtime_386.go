//go:build 386

package main

import "runtime"

func init() {
	// iSH app (iOS) emulates x86 in usermode and performs poorly with
	// multiple goroutines. Parse documents one at a time on 386 builds.
	runtime.GOMAXPROCS(1)
	defaultConcurrency = 1
}
