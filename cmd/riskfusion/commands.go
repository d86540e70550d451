package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"riskfusion/adapters/classifier"
	"riskfusion/adapters/modelstore"
	"riskfusion/adapters/scoring"
	"riskfusion/app"
	"riskfusion/domain/frame"
	"riskfusion/internal/config"
	"riskfusion/internal/errors"

	"github.com/spf13/cobra"
)

// enrichFlags are shared by enrich and enrich-batch
type enrichFlags struct {
	source      modelSource
	labelColumn string
	family      string
	seed        int64
}

func (fl *enrichFlags) bind(cmd *cobra.Command) {
	fl.source.bind(cmd)
	cmd.Flags().StringVar(&fl.labelColumn, "label-column", "", "Label column that triggers training (default from RISK_LABEL_COLUMN)")
	cmd.Flags().StringVar(&fl.family, "family", "", "Model family to train: "+strings.Join(classifier.Families(), " or "))
	cmd.Flags().Int64Var(&fl.seed, "seed", 0, "Placeholder seed (0 keeps RISK_PLACEHOLDER_SEED)")
}

// apply overrides the loaded configuration with any flags that were set and
// validates the result
func (fl *enrichFlags) apply(env *environment) error {
	if fl.labelColumn != "" {
		env.cfg.Pipeline.LabelColumn = strings.TrimSpace(fl.labelColumn)
	}
	if fl.family != "" {
		env.cfg.Model.Family = strings.ToLower(strings.TrimSpace(fl.family))
	}
	if fl.seed != 0 {
		env.cfg.Pipeline.PlaceholderSeed = fl.seed
	}
	if err := config.Validate(env.cfg); err != nil {
		return errors.Wrap(err, "invalid command line override")
	}
	return nil
}

func newEnrichCmd(env *environment) *cobra.Command {
	var flags enrichFlags
	var target modelTarget
	var reportPath string

	cmd := &cobra.Command{
		Use:   "enrich [input] [output]",
		Short: "Score a batch under every method and train when it is labeled",
		Long: `Run the full fusion pipeline on one CSV or XLSX file and write the
enriched table. When the input carries the label column a new model is
trained on it; --save-model writes that model to a file and --save-model-dir
stores it under its model ID for later use with --model-dir and --model-id.

Example: riskfusion enrich observations.csv enriched.csv --save-model-dir models --report run.html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(env); err != nil {
				return err
			}
			return runEnrich(cmd.Context(), env, args[0], args[1], flags.source, target, reportPath)
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&target.path, "save-model", "", "Write the model trained on this batch to this path")
	cmd.Flags().StringVar(&target.dir, "save-model-dir", "", "Store the model trained on this batch in this model directory")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a run report (.md for Markdown, anything else for HTML)")

	return cmd
}

func runEnrich(ctx context.Context, env *environment, input, output string, source modelSource, target modelTarget, reportPath string) error {
	service, err := buildService(env.cfg, env.logger)
	if err != nil {
		return err
	}
	f, err := readFrame(input, env.cfg, env.logger)
	if err != nil {
		return err
	}
	model, err := loadModel(ctx, source, env.logger)
	if err != nil {
		return err
	}

	result, err := service.EnrichAndTrain(ctx, f, model, runOptions(env.cfg))
	if err != nil {
		return err
	}

	if err := writeFrame(output, result.Frame); err != nil {
		return err
	}
	if err := saveTrained(ctx, target, result, env.logger); err != nil {
		return err
	}
	if err := writeReport(reportPath, input, result); err != nil {
		return err
	}

	fmt.Printf("Enriched %d rows -> %s (fingerprint %s)\n", result.Frame.Len(), output, result.Fingerprint)
	if result.Placeholder {
		fmt.Println("WARNING: no model supplied; ml_probability holds random placeholders")
	}
	if result.Trained {
		m := result.Training.Metrics
		fmt.Printf("Trained %s model %s on %d labeled rows: accuracy=%.3f precision=%.3f recall=%.3f f1=%.3f (in-sample)\n",
			result.Training.Family, result.Training.ModelID, result.Training.LabeledRows, m.Accuracy, m.Precision, m.Recall, m.F1)
	}
	return nil
}

func newEnrichBatchCmd(env *environment) *cobra.Command {
	var flags enrichFlags
	var outDir string

	cmd := &cobra.Command{
		Use:   "enrich-batch [inputs...]",
		Short: "Enrich several independent batches concurrently",
		Long: `Each input file is a separate batch: TOPSIS and grey scores are relative
to that file's rows only. Outputs are written to --out-dir under the input's
base name, so two inputs may not share a base name.

Example: riskfusion enrich-batch week1.csv week2.xlsx --model model.json --out-dir enriched/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(env); err != nil {
				return err
			}
			return runEnrichBatch(cmd.Context(), env, args, flags.source, outDir)
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&outDir, "out-dir", "enriched", "Directory for enriched outputs")

	return cmd
}

func runEnrichBatch(ctx context.Context, env *environment, inputs []string, source modelSource, outDir string) error {
	outputs, err := batchOutputs(inputs, outDir)
	if err != nil {
		return err
	}
	service, err := buildService(env.cfg, env.logger)
	if err != nil {
		return err
	}
	model, err := loadModel(ctx, source, env.logger)
	if err != nil {
		return err
	}

	batches := make([]*frame.Frame, len(inputs))
	for i, input := range inputs {
		if batches[i], err = readFrame(input, env.cfg, env.logger); err != nil {
			return err
		}
	}

	runner := app.NewBatchRunner(service, env.cfg.Runner.MaxConcurrent)
	results, err := runner.Run(ctx, batches, model, runOptions(env.cfg))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for i, result := range results {
		if err := writeFrame(outputs[i], result.Frame); err != nil {
			return err
		}
		fmt.Printf("%s: %d rows -> %s (placeholder=%t trained=%t)\n",
			inputs[i], result.Frame.Len(), outputs[i], result.Placeholder, result.Trained)
	}
	return nil
}

// batchOutputs maps each input to outDir/<base name> and rejects inputs that
// would overwrite each other's output.
func batchOutputs(inputs []string, outDir string) ([]string, error) {
	outputs := make([]string, len(inputs))
	seen := make(map[string]string, len(inputs))
	for i, input := range inputs {
		base := filepath.Base(input)
		if first, ok := seen[base]; ok {
			return nil, errors.InvalidInput(fmt.Sprintf(
				"inputs %s and %s would both be written to %s", first, input, filepath.Join(outDir, base)))
		}
		seen[base] = input
		outputs[i] = filepath.Join(outDir, base)
	}
	return outputs, nil
}

// classifierStage names the score target that applies a saved model
const classifierStage = "classifier"

func newScoreCmd(env *environment) *cobra.Command {
	var stageName, output string
	var source modelSource

	cmd := &cobra.Command{
		Use:   "score [input]",
		Short: "Run a single scoring method",
		Long: fmt.Sprintf(`Run one scoring method on its own and print the resulting table as CSV.
Methods that depend on earlier columns (for example neutrosophic needs
ml_probability) fail with a schema error when those columns are absent.

Stages: %s, %s

The classifier stage needs a saved model: --model, or --model-dir with --model-id.

Example: riskfusion score observations.csv --stage topsis`, strings.Join(stageNames(), ", "), classifierStage),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd.Context(), env, args[0], stageName, source, output)
		},
	}

	cmd.Flags().StringVar(&stageName, "stage", "rule", "Scoring method to run")
	source.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this CSV or XLSX file instead of stdout")

	return cmd
}

func runScore(ctx context.Context, env *environment, input, stageName string, source modelSource, output string) error {
	f, err := readFrame(input, env.cfg, env.logger)
	if err != nil {
		return err
	}

	var scored *frame.Frame
	if stageName == classifierStage {
		if !source.isSet() {
			return errors.InvalidInput("--model or --model-dir with --model-id is required for --stage classifier")
		}
		service, err := buildService(env.cfg, env.logger)
		if err != nil {
			return err
		}
		model, err := loadModel(ctx, source, env.logger)
		if err != nil {
			return err
		}
		if scored, err = service.ApplyMLModel(f, model); err != nil {
			return err
		}
	} else {
		stage, ok := scoring.Stages()[stageName]
		if !ok {
			return errors.InvalidInput(fmt.Sprintf("unknown stage %q (available: %s, %s)",
				stageName, strings.Join(stageNames(), ", "), classifierStage))
		}
		if scored, err = scoring.Run(stage, f); err != nil {
			return err
		}
	}

	if output != "" {
		return writeFrame(output, scored)
	}
	headers, rows := scored.Table()
	w := csv.NewWriter(os.Stdout)
	if err := w.Write(headers); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func stageNames() []string {
	names := make([]string, 0, len(scoring.Stages()))
	for name := range scoring.Stages() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newInspectModelCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect-model [path]",
		Short: "Print the metadata of a saved risk model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := modelstore.LoadFile(args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(record, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
