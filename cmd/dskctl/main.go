// Command dskctl exercises the dsk-go runtime end to end: a pool demo,
// a queue demo, and the seed Fibonacci-on-scheduler scenario.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
