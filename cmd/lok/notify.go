package main

import (
	"context"

	"github.com/spf13/cobra"

	"loklagbe/internal/app"
	"loklagbe/internal/engine"
)

func notifyCmd() *cobra.Command {
	n := &cobra.Command{Use: "notify", Short: "Read notifications"}
	n.AddCommand(notifyListCmd())
	n.AddCommand(notifyShowCmd())
	n.AddCommand(notifyReadCmd())
	return n
}

func notifyListCmd() *cobra.Command {
	var q engine.NotificationQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the acting user's notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			q.UserID = id
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				items, err := ws.Engine.ListNotifications(ctx, q)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(items)
				}
				tw := newTable("ID", "Type", "Work", "From", "Read", "Message")
				for _, n := range items {
					tw.AppendRow([]any{n.ID, n.Type, n.WorkID, n.FromUserID, n.Read, n.Message})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&q.UnreadOnly, "unread", false, "only unread")
	cmd.Flags().IntVar(&q.Limit, "limit", 50, "maximum rows")
	return cmd
}

func notifyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Open a notification with its posting and available actions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				d, err := ws.Engine.NotificationDetail(ctx, id, args[0])
				if err != nil {
					return err
				}
				return printJSONOrPretty(d)
			})
		},
	}
}

func notifyReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				n, err := ws.Engine.MarkRead(ctx, id, args[0])
				if err != nil {
					return err
				}
				return printJSONOrPretty(n)
			})
		},
	}
}
