package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/blueprint-cli/internal/model"
)

var (
	generateContext string
	generateFile    string
	generateFormat  string
	generateOutput  string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a strategic blueprint from a business context",
	Long:  "Runs the five-section research pipeline and prints the blueprint. On failure the sections completed so far are still printed alongside the error.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		businessContext := generateContext
		if generateFile != "" {
			data, err := os.ReadFile(generateFile)
			if err != nil {
				return eris.Wrap(err, "read context file")
			}
			businessContext = string(data)
		}
		if businessContext == "" {
			return eris.New("business context is required (--context or --file)")
		}

		env, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		orch, err := newOrchestrator(func(ev model.ProgressEvent) {
			if ev.Err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s failed: %v\n", ev.Label, ev.Err)
				return
			}
			fmt.Fprintf(os.Stderr, "✓ %s (%d%%)\n", ev.Label, ev.Percent)
		})
		if err != nil {
			return err
		}

		run, err := env.store.CreateRun(ctx, businessContext)
		if err != nil {
			return err
		}
		if err := env.store.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
			zap.L().Warn("failed to mark run running", zap.Error(err))
		}

		result := orch.Generate(ctx, businessContext)

		if err := env.store.UpdateRunResult(ctx, run.ID, result); err != nil {
			zap.L().Warn("failed to persist run result", zap.String("run", run.ID), zap.Error(err))
		}

		if err := writeResult(result); err != nil {
			return err
		}

		if !result.Success {
			return eris.Errorf("generation failed at %s: %s", result.FailedSection, result.Error)
		}
		return nil
	},
}

func writeResult(result *model.GenerationResult) error {
	var (
		data []byte
		err  error
	)
	switch generateFormat {
	case "yaml":
		data, err = yaml.Marshal(result)
	case "json", "":
		data, err = json.MarshalIndent(result, "", "  ")
	default:
		return eris.Errorf("unknown format %q (want json or yaml)", generateFormat)
	}
	if err != nil {
		return eris.Wrap(err, "encode result")
	}

	if generateOutput != "" {
		return eris.Wrap(os.WriteFile(generateOutput, data, 0o644), "write output file")
	}
	fmt.Println(string(data))
	return nil
}

func init() {
	generateCmd.Flags().StringVar(&generateContext, "context", "", "business context description")
	generateCmd.Flags().StringVar(&generateFile, "file", "", "file containing the business context")
	generateCmd.Flags().StringVar(&generateFormat, "format", "json", "output format: json or yaml")
	generateCmd.Flags().StringVar(&generateOutput, "output", "", "write output to file instead of stdout")
	rootCmd.AddCommand(generateCmd)
}
