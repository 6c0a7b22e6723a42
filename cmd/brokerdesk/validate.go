package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/brokerdesk/internal/config"
	fileAdapter "github.com/aretw0/brokerdesk/pkg/adapters/file"
	loamAdapter "github.com/aretw0/brokerdesk/pkg/adapters/loam"
	"github.com/aretw0/brokerdesk/pkg/domain"
	"github.com/aretw0/brokerdesk/pkg/ports"
	"github.com/aretw0/brokerdesk/pkg/stage"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [pipelines.yaml | dir]",
	Short: "Check pipeline definitions for consistency",
	Long: `Loads custom pipelines from a YAML file or a Loam directory (or the configured
source) and reports duplicate stages, broken transitions and unreachable stages.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defs, err := loadDefinitions(cmd, args)
		if err != nil {
			return err
		}
		if err := validateDefinitions(defs); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d pipelines are valid! ✅\n", len(defs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func loadDefinitions(cmd *cobra.Command, args []string) ([]domain.CustomPipeline, error) {
	var loader ports.PipelineLoader
	if len(args) > 0 {
		info, err := os.Stat(args[0])
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			l, err := loamAdapter.Open(args[0])
			if err != nil {
				return nil, err
			}
			loader = l
		} else {
			loader = fileAdapter.NewLoader(args[0])
		}
	} else {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return nil, err
		}
		switch cfg.Pipelines.Source {
		case config.PipelinesFile:
			loader = fileAdapter.NewLoader(cfg.Pipelines.Path)
		case config.PipelinesLoam:
			l, err := loamAdapter.Open(cfg.Pipelines.Path)
			if err != nil {
				return nil, err
			}
			loader = l
		default:
			return stage.DefaultPipelines(), nil
		}
	}
	return loader.LoadPipelines(cmd.Context())
}

// validateDefinitions compiles every pipeline and gathers the problems found.
func validateDefinitions(defs []domain.CustomPipeline) error {
	var problems []string
	for _, def := range defs {
		if _, err := stage.New(def.EntryStage, def.Stages); err != nil {
			var ve *stage.ValidationError
			if errors.As(err, &ve) {
				for _, p := range ve.Problems {
					problems = append(problems, def.ID+": "+p)
				}
				continue
			}
			problems = append(problems, def.ID+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return &stage.ValidationError{Problems: problems}
	}
	return nil
}
