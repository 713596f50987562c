package cmd

import (
	"context"
	"encoding/json"
	"strings"

	backendadapter "github.com/BitForged/Compass/internal/adapters/backend"
	"github.com/spf13/cobra"
)

const generateRoute = "/generate"

func newGenerateCmd(app *app) *cobra.Command {
	var job backendadapter.Txt2ImgJob
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Queue a txt2img job",
		Args:  cobra.MinimumNArgs(1),
		RunE: app.action(func(cmd *cobra.Command, args []string) error {
			queued := job
			queued.Prompt = strings.Join(args, " ")
			if cmd.Flags().Changed("seed") {
				queued.Seed = &seed
			}

			return app.showRaw(cmd, generateRoute, "Queueing job...", func(ctx context.Context) (json.RawMessage, error) {
				return app.api.QueueTxt2Img(ctx, queued)
			})
		}),
	}

	flags := cmd.Flags()
	flags.StringVar(&job.NegativePrompt, "negative", "", "Negative prompt")
	flags.StringVar(&job.ModelName, "model", "", "Checkpoint name (see `compass models list`)")
	flags.StringVar(&job.SamplerName, "sampler", "", "Sampler name")
	flags.StringVar(&job.Scheduler, "scheduler", "", "Scheduler name")
	flags.IntVar(&job.Steps, "steps", 0, "Sampling steps (backend default when 0)")
	flags.Float64Var(&job.CfgScale, "cfg-scale", 0, "CFG scale (backend default when 0)")
	flags.IntVar(&job.Width, "width", 0, "Image width")
	flags.IntVar(&job.Height, "height", 0, "Image height")
	flags.Int64Var(&seed, "seed", -1, "Seed (random when not set)")
	flags.StringVar(&job.CategoryID, "category", "", "Gallery category for the result")
	flags.StringSliceVar(&job.Loras, "lora", nil, "LoRA to apply (repeatable)")

	return cmd
}

func newJobsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and interrupt your generation jobs",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your jobs",
			Args:  cobra.NoArgs,
			RunE: app.action(func(cmd *cobra.Command, _ []string) error {
				return app.showRaw(cmd, generateRoute, "Fetching jobs...", app.api.MyJobs)
			}),
		},
		&cobra.Command{
			Use:   "show <job-id>",
			Short: "Show one job",
			Args:  cobra.ExactArgs(1),
			RunE: app.action(func(cmd *cobra.Command, args []string) error {
				return app.showRaw(cmd, generateRoute, "Fetching job...", func(ctx context.Context) (json.RawMessage, error) {
					return app.api.Job(ctx, args[0])
				})
			}),
		},
		&cobra.Command{
			Use:   "interrupt <job-id>",
			Short: "Interrupt a queued or running job",
			Args:  cobra.ExactArgs(1),
			RunE: app.action(func(cmd *cobra.Command, args []string) error {
				return app.showRaw(cmd, generateRoute, "Interrupting job...", func(ctx context.Context) (json.RawMessage, error) {
					return app.api.InterruptJob(ctx, args[0])
				})
			}),
		},
	)

	return cmd
}

func newLimitsCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "limits",
		Short: "Show the generation limits configured on the backend",
		Args:  cobra.NoArgs,
		RunE: app.action(func(cmd *cobra.Command, _ []string) error {
			return app.showRaw(cmd, "", "Fetching limits...", app.api.Limits)
		}),
	}
}
