package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"loklagbe/internal/app"
	"loklagbe/internal/domain"
	"loklagbe/internal/engine"
)

func workCmd() *cobra.Command {
	w := &cobra.Command{
		Use:   "work",
		Short: "Post, browse and move work postings",
	}
	w.AddCommand(workPostCmd())
	w.AddCommand(workListCmd())
	w.AddCommand(workShowCmd())
	w.AddCommand(workLocationsCmd())
	w.AddCommand(workHistoryCmd())
	w.AddCommand(workDeleteCmd())
	for _, a := range engine.Actions() {
		w.AddCommand(workActionCmd(a))
	}
	return w
}

func workPostCmd() *cobra.Command {
	var opts engine.PostWorkOptions
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a work",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			opts.UserID = id
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				w, err := ws.Engine.PostWork(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrPretty(w)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "posting id (default: generated)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	cmd.Flags().StringVar(&opts.Category, "category", "", "category name or slug")
	cmd.Flags().Int64Var(&opts.Price, "price", 0, "price in whole currency units")
	cmd.Flags().StringVar(&opts.Location, "location", "", "location")
	cmd.Flags().StringVar(&opts.StartAt, "start", "", "start time, RFC3339")
	cmd.Flags().StringVar(&opts.EndAt, "end", "", "end time, RFC3339")
	for _, f := range []string{"title", "description", "category", "price", "location"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func workListCmd() *cobra.Command {
	var q engine.WorkQuery
	var names bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List postings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				works, err := ws.Engine.ListWorks(ctx, q)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(works)
				}
				posters := map[string]string{}
				if names {
					if posters, err = ws.Engine.ResolvePosterNames(ctx, works); err != nil {
						return err
					}
				}
				printWorks(works, posters)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&q.Category, "category", "", "category filter")
	cmd.Flags().StringVar(&q.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&q.Location, "location", "", "location filter, case-insensitive")
	cmd.Flags().StringVar(&q.PosterID, "poster", "", "poster id filter")
	cmd.Flags().IntVar(&q.Limit, "limit", 50, "maximum rows")
	cmd.Flags().BoolVar(&names, "names", true, "show poster names")
	return cmd
}

func printWorks(works []domain.WorkPosting, posters map[string]string) {
	tw := newTable("ID", "Title", "Category", "Price", "Location", "Status", "Poster", "Worker")
	for _, w := range works {
		poster := w.UserID
		if n, ok := posters[w.UserID]; ok {
			poster = n
		}
		tw.AppendRow([]any{w.ID, w.Title, w.Category, w.Price, w.Location, w.Status, poster, w.Worker()})
	}
	tw.Render()
}

func workShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				w, err := ws.Engine.GetWork(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrPretty(w)
			})
		},
	}
}

func workLocationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "Distinct locations of active postings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				locs, err := ws.Engine.WorkLocations(ctx)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(locs)
				}
				for _, l := range locs {
					fmt.Println(l)
				}
				return nil
			})
		},
	}
}

func workHistoryCmd() *cobra.Command {
	var relation, status string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Postings the acting user posted or claimed",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				works, err := ws.Engine.History(ctx, id, relation, status)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(works)
				}
				printWorks(works, nil)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&relation, "relation", "", "posted or accepted")
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	return cmd
}

func workDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a posting (poster or admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				if err := ws.Engine.DeleteWork(ctx, args[0], id); err != nil {
					return err
				}
				fmt.Printf("deleted work %s\n", args[0])
				return nil
			})
		},
	}
}

var actionHelp = map[engine.Action]string{
	engine.ActionClaim:    "Ask to do an active posting",
	engine.ActionGrant:    "Accept the pending claim (poster)",
	engine.ActionReject:   "Turn down the pending claim (poster)",
	engine.ActionMarkDone: "Report the work finished (worker)",
	engine.ActionConfirm:  "Confirm completion (poster)",
	engine.ActionDeny:     "Send the work back to the worker (poster)",
	engine.ActionApprove:  "Publish a pending posting (admin)",
	engine.ActionDecline:  "Refuse a pending posting (admin)",
}

func workActionCmd(a engine.Action) *cobra.Command {
	var expected int64
	use := string(a)
	if a == engine.ActionMarkDone {
		use = "done"
	}
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: actionHelp[a],
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				res, err := ws.Engine.ApplyTransition(ctx, engine.TransitionRequest{
					WorkID:          args[0],
					Action:          a,
					ActorID:         id,
					ExpectedVersion: expected,
				})
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(res)
				}
				fmt.Printf("%s: %s -> %s\n", res.Work.ID, res.From, res.Work.Status)
				if res.Notification != nil {
					fmt.Printf("notified %s: %s\n", res.Notification.ToUserID, res.Notification.Message)
				}
				if res.RatingPrompt != nil {
					fmt.Printf("rate the worker: lok rate %s <score> --work %s\n", res.RatingPrompt.RatedUserID, res.RatingPrompt.WorkID)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&expected, "expected-version", 0, "fail if the posting is not at this version")
	return cmd
}
