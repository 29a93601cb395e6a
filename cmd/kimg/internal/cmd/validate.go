package cmd

import (
	"debug/elf"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <elf-file>",
	Short: "Check that an ELF image satisfies the loader's constraints",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validate(args[0])
	},
}

// validate applies the same constraints kernel/elf.Load enforces before it
// will create a task from a file: 32-bit, little-endian, i386, ET_EXEC,
// and at least one PT_LOAD segment.
func validate(path string) error {
	f, err := elf.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch {
	case f.Class != elf.ELFCLASS32:
		return fmt.Errorf("%s: not a 32-bit ELF (class %s)", path, f.Class)
	case f.Data != elf.ELFDATA2LSB:
		return fmt.Errorf("%s: not little-endian (data %s)", path, f.Data)
	case f.Machine != elf.EM_386:
		return fmt.Errorf("%s: not i386 (machine %s)", path, f.Machine)
	case f.Type != elf.ET_EXEC:
		return fmt.Errorf("%s: not a static executable (type %s)", path, f.Type)
	}

	loadable := 0
	for _, p := range f.Progs {
		if p.Type == elf.PT_LOAD {
			loadable++
		}
	}
	if loadable == 0 {
		return fmt.Errorf("%s: no PT_LOAD segments", path)
	}

	fmt.Fprintf(os.Stdout, "%s: ok (entry %#x, %d PT_LOAD segment(s))\n", path, f.Entry, loadable)
	return nil
}
