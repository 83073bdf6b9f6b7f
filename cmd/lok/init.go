package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"loklagbe/internal/app"
	"loklagbe/internal/config"
	"loklagbe/internal/logging"
)

func initCmd() *cobra.Command {
	var adminName string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the workspace, default config and admin",
		Long:  "Writes loklagbe.yml if missing, migrates the database and makes --actor-id an admin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(viper.GetString("log-level"), false)
			if err != nil {
				return err
			}
			defer logger.Sync()
			ws, created, err := app.Init(cmd.Context(), viper.GetString("workspace"), viper.GetString("actor-id"), adminName, logger)
			if err != nil {
				return err
			}
			defer ws.Close()
			if viper.GetBool("json") {
				return printJSON(map[string]any{"workspace": ws.Dir, "config_created": created, "admin": viper.GetString("actor-id")})
			}
			if created {
				fmt.Printf("wrote %s\n", config.Path(ws.Dir))
			}
			fmt.Println("workspace ready")
			return nil
		},
	}
	cmd.Flags().StringVar(&adminName, "admin-name", "", "admin display name")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect loklagbe.yml",
		Long:  "Config holds the category catalog, notification templates, rating bounds, posting and moderation policy, and webhooks.",
	}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				return printJSONOrPretty(ws.Config)
			})
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate loklagbe.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Load(viper.GetString("workspace"))
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	})
	return cfg
}
