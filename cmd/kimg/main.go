// Command kimg inspects ELF images built for the kernel and compiles the
// boot manifest that describes which of them a boot image should carry.
package main

import (
	"fmt"
	"os"

	"github.com/lightap/Microkernel-OS-sub001/cmd/kimg/internal/cmd"
)

func main() {
	if err := cmd.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
