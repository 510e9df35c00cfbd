package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// xyzCommand and ciCommand are explicit out-of-scope stubs: both verbs
// exist in the source project's argument parser, but neither has a
// counterpart in this batch-processing rework (xyz extracts geometry into
// standalone coordinate files; ci generates input files from coordinate
// files). Both fail loudly rather than silently no-op.

func xyzCommand() *cli.Command {
	return &cli.Command{
		Name:  "xyz",
		Usage: "Not implemented: geometry extraction is out of scope for this tool",
		Action: func(c *cli.Context) error {
			return fmt.Errorf("gaussextract: xyz is out of scope, see DESIGN.md")
		},
	}
}

func ciCommand() *cli.Command {
	return &cli.Command{
		Name:  "ci",
		Usage: "Not implemented: input-file generation from coordinate files is out of scope for this tool",
		Action: func(c *cli.Context) error {
			return fmt.Errorf("gaussextract: ci is out of scope, see DESIGN.md")
		},
	}
}
