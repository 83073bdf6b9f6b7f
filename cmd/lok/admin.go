package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"loklagbe/internal/app"
	"loklagbe/internal/domain"
)

func adminCmd() *cobra.Command {
	a := &cobra.Command{Use: "admin", Short: "Administration"}
	a.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Dashboard counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				s, err := ws.Engine.Stats(ctx, id)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(s)
				}
				tw := newTable("Users", "Works", "Active", "Pending", "Completed", "Notifications")
				tw.AppendRow([]any{s.Users, s.Works, s.Active, s.Pending, s.Completed, s.Notifications})
				tw.Render()
				if len(s.ByStatus) == 0 {
					return nil
				}
				bt := newTable("Status", "Works")
				for _, st := range domain.Statuses() {
					if n, ok := s.ByStatus[string(st)]; ok {
						bt.AppendRow([]any{st, n})
					}
				}
				bt.Render()
				return nil
			})
		},
	})
	return a
}

func logCmd() *cobra.Command {
	l := &cobra.Command{Use: "log", Short: "Event log"}
	var n int
	var evtType, entityKind, entityID string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest events (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				events, err := ws.Engine.LatestEvents(ctx, id, n, 0, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(events)
				}
				tw := newTable("ID", "TS", "Type", "Entity", "Actor", "Payload")
				for _, e := range events {
					tw.AppendRow([]any{e.ID, e.TS, e.Type, e.EntityKind + ":" + e.EntityID, e.ActorID, e.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	tail.Flags().StringVar(&evtType, "type", "", "event type filter")
	tail.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	tail.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	l.AddCommand(tail)
	return l
}

func apiKeyCmd() *cobra.Command {
	k := &cobra.Command{Use: "apikey", Short: "Manage API keys for the HTTP API"}
	var name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Issue a key for the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				key, secret, err := ws.Engine.CreateAPIKey(ctx, id, name)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(map[string]any{"key": key, "secret": secret})
				}
				fmt.Printf("key %s created; secret (shown once): %s\n", key.ID, secret)
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "label")
	k.AddCommand(create)
	k.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the acting user's keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				keys, err := ws.Engine.ListAPIKeys(ctx, id)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(keys)
				}
				tw := newTable("ID", "Name", "Created")
				for _, key := range keys {
					tw.AppendRow([]any{key.ID, key.Name, key.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	})
	k.AddCommand(&cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoke a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				if err := ws.Engine.RevokeAPIKey(ctx, id, args[0]); err != nil {
					return err
				}
				fmt.Printf("revoked %s\n", args[0])
				return nil
			})
		},
	})
	return k
}
