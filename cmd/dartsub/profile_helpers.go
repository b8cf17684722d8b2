package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/MarkBennett/dart-sub004/internal/prof"
)

// setupProfiling starts the profilers named by --cpu-profile, --mem-profile
// and --runtime-trace. The returned cleanup may be called more than once.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	for name, dst := range map[string]*string{
		"cpu-profile":   &opts.CPU,
		"mem-profile":   &opts.Mem,
		"runtime-trace": &opts.Trace,
	} {
		v, err := flags.GetString(name)
		if err != nil {
			return nil, fmt.Errorf("read --%s: %w", name, err)
		}
		*dst = v
	}

	session, err := prof.Start(opts)
	if err != nil {
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := session.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "dartsub: profile: %v\n", err)
			}
		})
	}, nil
}
