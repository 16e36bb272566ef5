package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/verity-ml/verity/internal/check"
	"github.com/verity-ml/verity/internal/version"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version and host information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Printf("verity %s\n", version.String())

			env := check.HostEnv()
			fmt.Printf("host:     %s/%s, %d cpus\n", env.OS, env.Arch, env.NumCPU)
			if len(env.CPUFeatures) > 0 {
				fmt.Printf("features: %v\n", env.CPUFeatures)
			}
			return nil
		},
	}
}
