package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrowmud/harrow/engine"
	"github.com/harrowmud/harrow/world"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load world and content directories and report what they define",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := world.LoadDir(worldDir)
		if err != nil {
			return fmt.Errorf("world: %w", err)
		}
		content, err := engine.LoadContentDir(contentDir)
		if err != nil {
			return fmt.Errorf("content: %w", err)
		}

		fmt.Printf("objects: %d\n", len(store.Records()))
		fmt.Printf("flows: %d\n", len(content.Flows))
		for _, f := range content.Flows {
			fmt.Printf("  %s (%d steps)\n", f.Name, len(f.Steps))
		}
		fmt.Printf("triggers: %d\n", len(content.Triggers))
		fmt.Printf("package attachments: %d\n", len(content.Packages))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
