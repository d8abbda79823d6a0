package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vkngwrapper/avatarskin/gpu/host"
	"github.com/vkngwrapper/avatarskin/scheduler"
)

var (
	runAvatars   int
	runFrames    int
	runAnimEvery int
	runDetailed  bool
)

func init() {
	cmd := newRunCmd()
	cmd.Flags().IntVar(&runAvatars, "avatars", 8, "Number of simulated avatars")
	cmd.Flags().IntVar(&runFrames, "frames", 120, "Number of render frames to run")
	cmd.Flags().IntVar(&runAnimEvery, "anim-every", 2, "Run an animation frame every N render frames")
	cmd.Flags().BoolVar(&runDetailed, "detailed", false, "Print every atlas block in the statistics")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Simulate avatars being animated and rendered",
		Long: `The run command creates the skinning resources on an in-memory device, adds
synthetic avatars and runs render and animation frames, then prints the
resource statistics as JSON.

Example:
  skinsim run --avatars 16 --frames 300
  skinsim run --config skinning.toml --anim-every 3 --detailed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun()
		},
	}
}

func runRun() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger()
	device := host.New(logger, host.CreateOptions{})
	ctx, err := scheduler.NewContext(logger, scheduler.ContextOptions{
		Device: device,
		Config: cfg,
	})
	if err != nil {
		return err
	}
	defer ctx.Destroy()

	sim, err := newSimulation(ctx, simulationOptions{
		Avatars:   runAvatars,
		AnimEvery: runAnimEvery,
	})
	if err != nil {
		return err
	}
	defer sim.Destroy()

	for i := 0; i < runFrames; i++ {
		err = sim.Step()
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(os.Stdout, ctx.BuildStatsString(runDetailed))
	return nil
}
