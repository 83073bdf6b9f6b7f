package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"loklagbe/internal/app"
	"loklagbe/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "lok",
	Short: "Lok Lagbe marketplace CLI",
	Long: `Lok Lagbe connects people who post paid work with people who do it.
- Workspace: the .loklagbe directory holding the database; loklagbe.yml next to it holds categories, templates and policy.
- Postings move active -> accepted_sent -> accepted -> completed_sent -> completed. The poster grants or rejects a claim and confirms or denies completion.
- With moderation on, new postings wait as pending until an admin approves or declines them.
- Every step notifies the other party; 'lok notify list' shows them.
- After completion the two sides rate each other with 'lok rate'.
- Event log: every change, view with 'lok log tail'.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("LOKLAGBE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("workspace", "w", ".", "workspace directory")
	flags.Bool("json", false, "output JSON")
	flags.String("actor-id", "", "acting user id")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	for _, name := range []string{"workspace", "json", "actor-id", "log-level"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(workCmd())
	rootCmd.AddCommand(notifyCmd())
	rootCmd.AddCommand(rateCmd())
	rootCmd.AddCommand(adminCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(apiKeyCmd())
	rootCmd.AddCommand(serveCmd())
}

// --- helpers ---

func withWorkspace(ctx context.Context, fn func(context.Context, *app.Workspace) error) error {
	logger, err := logging.New(viper.GetString("log-level"), false)
	if err != nil {
		return err
	}
	defer logger.Sync()
	ws, err := app.Open(ctx, viper.GetString("workspace"), logger)
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ctx, ws)
}

func actorID() (string, error) {
	id := strings.TrimSpace(viper.GetString("actor-id"))
	if id == "" {
		return "", fmt.Errorf("--actor-id (or LOKLAGBE_ACTOR_ID) is required")
	}
	return id, nil
}

func printJSONOrPretty(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(header ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row(header))
	return tw
}

func optionalFlag(cmd *cobra.Command, name string, v *string) *string {
	if cmd.Flags().Changed(name) {
		return v
	}
	return nil
}

func isJSON() bool {
	return viper.GetBool("json")
}
