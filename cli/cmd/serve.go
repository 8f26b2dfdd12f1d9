package cmd

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/harrowmud/harrow/engine"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the flow execution boundary over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := engine.Config{}
		if listenAddr != "" {
			cfg.ListenAddr = listenAddr
		}
		app, err := loadApp(cfg)
		if err != nil {
			return err
		}

		g := gin.Default()
		engine.NewHTTPHandler(app, g, app.Logger())

		app.Logger().Info("listening", "addr", app.Config.ListenAddr)
		if err := g.Run(app.Config.ListenAddr); err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (host:port)")
	rootCmd.AddCommand(serveCmd)
}
