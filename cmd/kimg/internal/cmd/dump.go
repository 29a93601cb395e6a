package cmd

import (
	"debug/elf"
	"fmt"
	"os"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lightap/Microkernel-OS-sub001/cmd/kimg/internal/wire"
)

var (
	dumpVerbose bool
	dumpLive    string
)

var dumpCmd = &cobra.Command{
	Use:   "dump <elf-file>",
	Short: "Print an ELF image's program header table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if dumpLive != "" {
			return dumpLiveSnapshot(dumpLive)
		}
		return dumpELF(args[0])
	},
}

func init() {
	dumpCmd.Flags().BoolVarP(&dumpVerbose, "verbose", "v", false, "deep-print decoded program headers")
	dumpCmd.Flags().StringVar(&dumpLive, "live", "", "decode a captured debug_dump snapshot instead of an ELF file")
}

func dumpELF(path string) error {
	f, err := elf.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	fmt.Printf("%s: entry %#x, %d program header(s)\n", path, f.Entry, len(f.Progs))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"type", "offset", "vaddr", "filesz", "memsz", "flags"})
	for _, p := range f.Progs {
		table.Append([]string{
			p.Type.String(),
			fmt.Sprintf("%#x", p.Off),
			fmt.Sprintf("%#x", p.Vaddr),
			strconv.FormatUint(p.Filesz, 10),
			strconv.FormatUint(p.Memsz, 10),
			p.Flags.String(),
		})
	}
	table.Render()

	if dumpVerbose {
		spew.Dump(f.Progs)
	}
	return nil
}

// dumpLiveSnapshot decodes a raw debug_dump payload captured from a running
// kernel (e.g. copied out of guest memory via a QEMU monitor command) and
// renders it as a task-table snapshot.
func dumpLiveSnapshot(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", path, err)
	}

	snap, ok := wire.Decode(raw)
	if !ok {
		return fmt.Errorf("%s: truncated snapshot (need %d bytes, got %d)", path, wire.Size, len(raw))
	}

	fmt.Printf("frames: %d/%d used\n", snap.UsedFrames, snap.TotalFrames)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"pid", "active", "state", "priority", "switches"})
	for i := uint32(0); i < snap.TaskCount && i < wire.MaxTasks; i++ {
		t := snap.Tasks[i]
		active := "no"
		if t.Active != 0 {
			active = "yes"
		}
		table.Append([]string{
			strconv.Itoa(int(t.PID)),
			active,
			wire.StateName(t.State),
			strconv.Itoa(int(t.Priority)),
			strconv.FormatUint(t.SwitchCount, 10),
		})
	}
	table.Render()

	if dumpVerbose {
		spew.Dump(snap)
	}
	return nil
}
