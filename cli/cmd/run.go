package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrowmud/harrow/engine"
)

var (
	runOrigin string
	runVars   []string
)

var runCmd = &cobra.Command{
	Use:   "run <flow>",
	Short: "Execute one flow in a fresh scene and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(engine.Config{})
		if err != nil {
			return err
		}
		scene, err := app.NewScene()
		if err != nil {
			return err
		}

		vars := map[string]any{}
		for _, pair := range runVars {
			k, v, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("variable %q is not key=value", pair)
			}
			vars[k] = v
		}

		fx, err := app.RunFlow(scene, args[0], engine.StringOrigin(runOrigin), vars)
		if err != nil {
			if engine.IsDomainError(err) && fx != nil {
				fmt.Printf("flow ended: %s (%s)\n", fx.TerminalState(), err)
				return nil
			}
			return err
		}
		if fx == nil {
			fmt.Println("flow deduplicated: nothing to do")
			return nil
		}

		fmt.Printf("terminal state: %s\n", fx.TerminalState())
		if fx.Message() != "" {
			fmt.Printf("message: %s\n", fx.Message())
		}
		for _, e := range fx.Emitted {
			fmt.Printf("event: %s\n", e.Type())
		}
		fmt.Printf("steps executed: %d\n", len(scene.Stack.StepHistory))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runOrigin, "origin", "cli", "origin key for the execution")
	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "initial variable as key=value (repeatable)")
	rootCmd.AddCommand(runCmd)
}
