package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gengraph version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gengraph %s\n", version)
	},
}
