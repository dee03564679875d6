// pattern: Imperative Shell
package cli

import (
	"fmt"
	"maps"
	"slices"

	flag "github.com/spf13/pflag"

	"wtforge/internal/allocate"
	"wtforge/internal/config"
)

func runPorts(args []string) error {
	fs := flag.NewFlagSet("ports", flag.ContinueOnError)
	target := fs.String("target", ".", "project repository root")
	probe := fs.Bool("probe", false, "check whether each port is currently bindable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: wtforge ports <branch> [--target dir] [--probe]")
	}
	branch := fs.Arg(0)

	cfg, err := config.Load(*target)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	alloc := allocate.Allocate(branch, cfg.Ranges)
	fmt.Printf("branch:    %s\n", alloc.Identity)
	fmt.Printf("safe name: %s\n", allocate.SafeName(branch, cfg.NameBudget))
	fmt.Printf("hash:      %s\n", alloc.Hash)
	fmt.Printf("offset:    %d\n", alloc.Offset)

	for _, name := range slices.Sorted(maps.Keys(alloc.Ports)) {
		port := alloc.Ports[name]
		if *probe && !allocate.ProbePort(port) {
			// Advisory only: the allocation stays as computed.
			fmt.Printf("%-10s %d (currently in use)\n", name, port)
			continue
		}
		fmt.Printf("%-10s %d\n", name, port)
	}
	return nil
}
