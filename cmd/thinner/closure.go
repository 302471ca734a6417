package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"thinner/internal/closure"
	"thinner/internal/model"
)

var (
	closureModel     string
	closureOutput    string
	closureApiOutput string
	closureFields    string
	closureInclude   []string
)

var apiClosureCmd = &cobra.Command{
	Use:   "api-closure",
	Short: "Compute the API closure of a root model",
	Long: `Compute the public surface reachable from the ApiRoot and ApiFxInternal
elements of a root model. Entities found on the way that are not visible
outside their assembly become ImplRoot. The ImplRoot elements of the input are
carried over so that the output can feed impl-closure.

Examples:
  thinner api-closure --model roots.toml --catalog corlib.yaml -o api.toml
  thinner api-closure --model roots.toml --profile windows -o api.toml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClosureCommand(cmd, func(ctx context.Context, e *closure.Engine, roots *model.Model) ([]*closure.Result, error) {
			res, err := e.RunApi(ctx, roots)
			if err != nil {
				return nil, err
			}
			return []*closure.Result{res}, nil
		})
	},
}

var implClosureCmd = &cobra.Command{
	Use:   "impl-closure",
	Short: "Compute the implementation closure of a root model",
	Long: `Compute everything the Api and ImplRoot elements of a model need at run time:
method bodies, attributes, override chains and constructor chains. Discovered
entities that are visible outside their assembly get an internal visibility
override.

Examples:
  thinner impl-closure --model api.toml -o impl.toml
  thinner impl-closure --model api.toml --fields keepAllValueTypeFields -o impl.toml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClosureCommand(cmd, func(ctx context.Context, e *closure.Engine, roots *model.Model) ([]*closure.Result, error) {
			res, err := e.RunImpl(ctx, roots)
			if err != nil {
				return nil, err
			}
			return []*closure.Result{res}, nil
		})
	},
}

var fullClosureCmd = &cobra.Command{
	Use:   "closure",
	Short: "Run the API closure and then the implementation closure",
	Long: `Run api-closure and feed its output to impl-closure.

Examples:
  thinner closure --model roots.toml -o thinned.toml
  thinner closure --model roots.toml --api-output api.toml -o thinned.toml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClosureCommand(cmd, func(ctx context.Context, e *closure.Engine, roots *model.Model) ([]*closure.Result, error) {
			api, err := e.RunApi(ctx, roots)
			if err != nil {
				return nil, err
			}
			if closureApiOutput != "" {
				if err := api.Model.Write(closureApiOutput); err != nil {
					return nil, err
				}
			}
			impl, err := e.RunImpl(ctx, api.Model)
			if err != nil {
				return nil, err
			}
			return []*closure.Result{api, impl}, nil
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{apiClosureCmd, implClosureCmd, fullClosureCmd} {
		cmd.Flags().StringVarP(&closureModel, "model", "m", "", "Root model file (.toml, .yaml or .json)")
		cmd.Flags().StringVarP(&closureOutput, "output", "o", "", "Output model file")
		cmd.Flags().StringSliceVar(&closureInclude, "include", nil, "Assemblies to thin (default: closure.includedAssemblies)")
		_ = cmd.MarkFlagRequired("model")
		_ = cmd.MarkFlagRequired("output")
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{implClosureCmd, fullClosureCmd} {
		cmd.Flags().StringVar(&closureFields, "fields", "", "Field retention: normal, keepAll, keepAllValueTypeFields")
	}
	fullClosureCmd.Flags().StringVar(&closureApiOutput, "api-output", "", "Also write the intermediate API closure model")
}

// ClosureResponse summarizes one pass of a closure command.
type ClosureResponse struct {
	RunID           string        `json:"runId,omitempty"`
	Output          string        `json:"output"`
	Stats           closure.Stats `json:"stats"`
	Unconstructible []string      `json:"unconstructible,omitempty"`
}

// inMemoryOutput stands for an intermediate model that was never written.
const inMemoryOutput = "(in-memory)"

type closureFunc func(ctx context.Context, e *closure.Engine, roots *model.Model) ([]*closure.Result, error)

func runClosureCommand(cmd *cobra.Command, run closureFunc) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(closureInclude) > 0 {
		s.cfg.Closure.IncludedAssemblies = closureInclude
	}
	if closureFields != "" {
		s.cfg.Closure.FieldOptions = closureFields
	}

	roots, err := s.readModel(closureModel)
	if err != nil {
		return err
	}
	program, digest, err := s.loadProgram()
	if err != nil {
		return err
	}
	engine, err := s.engine(program)
	if err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	results, err := run(ctx, engine, roots)
	if err != nil {
		return err
	}

	final := results[len(results)-1]
	if err := final.Model.Write(closureOutput); err != nil {
		return err
	}

	var responses []*ClosureResponse
	modelPath := closureModel
	for i, res := range results {
		out := closureOutput
		if i < len(results)-1 {
			out = closureApiOutput
		}
		if out == "" {
			out = inMemoryOutput
		}
		responses = append(responses, &ClosureResponse{
			RunID:           s.recordRun(ctx, modelPath, out, digest, res),
			Output:          out,
			Stats:           res.Stats,
			Unconstructible: res.Unconstructible,
		})
		modelPath = out
	}

	text, err := FormatResponse(responses, OutputFormat(formatFlag))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
