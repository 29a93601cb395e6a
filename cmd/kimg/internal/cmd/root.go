// Package cmd builds the kimg cobra command tree: validate, dump, pack and
// memmap.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kimg",
	Short: "Inspect ELF server images and compile boot manifests for the kernel",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Root wires every subcommand under the kimg root and returns it for
// Execute.
func Root() *cobra.Command {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(memmapCmd)
	return rootCmd
}
