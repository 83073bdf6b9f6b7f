package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"loklagbe/internal/app"
	"loklagbe/internal/domain"
	"loklagbe/internal/engine"
)

func userCmd() *cobra.Command {
	u := &cobra.Command{Use: "user", Short: "Manage user profiles"}
	u.AddCommand(userCreateCmd())
	u.AddCommand(userShowCmd())
	u.AddCommand(userEditCmd())
	u.AddCommand(userListCmd())
	u.AddCommand(userVerifyCmd())
	u.AddCommand(userDeleteCmd())
	return u
}

func userCreateCmd() *cobra.Command {
	var in engine.ProfileInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the acting user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			in.ID = id
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				u, err := ws.Engine.CreateProfile(ctx, in)
				if err != nil {
					return err
				}
				return printJSONOrPretty(u)
			})
		},
	}
	cmd.Flags().StringVar(&in.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&in.NationalID, "nid", "", "national id number")
	cmd.Flags().StringVar(&in.Bio, "bio", "", "short bio")
	cmd.Flags().StringVar(&in.ImageURL, "image-url", "", "profile image url")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func userShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a profile (default: the acting user)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			if len(args) == 1 {
				id = args[0]
			} else {
				var err error
				if id, err = actorID(); err != nil {
					return err
				}
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				u, err := ws.Engine.GetProfile(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrPretty(u)
			})
		},
	}
}

func userEditCmd() *cobra.Command {
	var name, phone, nid, bio, image string
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit the acting user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			patch := engine.ProfilePatch{
				FullName:   optionalFlag(cmd, "name", &name),
				Phone:      optionalFlag(cmd, "phone", &phone),
				NationalID: optionalFlag(cmd, "nid", &nid),
				Bio:        optionalFlag(cmd, "bio", &bio),
				ImageURL:   optionalFlag(cmd, "image-url", &image),
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				u, err := ws.Engine.UpdateProfile(ctx, id, patch)
				if err != nil {
					return err
				}
				return printJSONOrPretty(u)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&nid, "nid", "", "national id number")
	cmd.Flags().StringVar(&bio, "bio", "", "short bio")
	cmd.Flags().StringVar(&image, "image-url", "", "profile image url")
	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users with posting counts (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				users, err := ws.Engine.ListUsers(ctx, id)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(users)
				}
				tw := newTable("ID", "Name", "Role", "Verified", "Rating", "Posts")
				for _, u := range users {
					tw.AppendRow([]any{u.ID, u.FullName, u.Role, u.Verified, ratingLabel(u.UserProfile), u.PostCount})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func userVerifyCmd() *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "verify <id>",
		Short: "Mark a user verified (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				u, err := ws.Engine.SetVerified(ctx, id, args[0], !revoke)
				if err != nil {
					return err
				}
				return printJSONOrPretty(u)
			})
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "clear the verified flag instead")
	return cmd
}

func userDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user and their postings (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				if err := ws.Engine.DeleteUser(ctx, id, args[0]); err != nil {
					return err
				}
				fmt.Printf("deleted user %s\n", args[0])
				return nil
			})
		},
	}
}

func rateCmd() *cobra.Command {
	var in engine.ReviewInput
	cmd := &cobra.Command{
		Use:   "rate <user-id> <score>",
		Short: "Rate a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := actorID()
			if err != nil {
				return err
			}
			score, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("score must be a number: %w", err)
			}
			in.ReviewerID, in.RatedUserID, in.Score = id, args[0], score
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				_, profile, err := ws.Engine.SubmitReview(ctx, in)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(profile)
				}
				fmt.Printf("%s is now rated %s\n", profile.FullName, ratingLabel(profile))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.WorkID, "work", "", "completed work the rating is for")
	cmd.Flags().StringVar(&in.Comment, "comment", "", "review comment")
	return cmd
}

func ratingLabel(u domain.UserProfile) string {
	if u.RatingCount == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f (%d)", u.Rating, u.RatingCount)
}
