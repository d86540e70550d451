package main

import (
	"fmt"
	"log"
	"os"

	"riskfusion/internal"
	"riskfusion/internal/config"
	"riskfusion/internal/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	env := &environment{logger: internal.NewDefaultLogger()}

	rootCmd := &cobra.Command{
		Use:   "riskfusion",
		Short: "Multi-method outbreak risk scoring for environmental observations",
		Long: `riskfusion scores tabular observations (temperature, humidity, rainfall,
vegetation index, soil moisture) with a rule engine, a risk classifier,
neutrosophic decomposition, AHP, TOPSIS and grey relational analysis.

Labeled batches also train a new risk model that can be saved and reused.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.load()
		},
	}

	rootCmd.AddCommand(
		newEnrichCmd(env),
		newEnrichBatchCmd(env),
		newScoreCmd(env),
		newInspectModelCmd(env),
	)

	if err := rootCmd.Execute(); err != nil {
		err = errors.FromDomain(err)
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", errors.GetCode(err), err)
		os.Exit(1)
	}
}

// environment carries what every command needs once configuration is loaded
type environment struct {
	cfg    *config.Config
	logger *internal.Logger
}

func (e *environment) load() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.logger.SetLevel(cfg.Log.Level)
	return nil
}
