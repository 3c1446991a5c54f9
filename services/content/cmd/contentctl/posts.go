package main

import (
	"content-engine/services/content/internal/entity"
	"content-engine/services/content/internal/repo/persistent"
	"content-engine/services/content/internal/usecase"

	"github.com/spf13/cobra"
)

func createCmd() *cobra.Command {
	var in usecase.CreatePostInput

	cmd := &cobra.Command{
		Use:   "create [idea]",
		Short: "Capture a raw idea, optionally expanding it into a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.RawIdea = args[0]
			return withPipeline(func(p usecase.PipelineUseCase) error {
				res, err := p.CreatePost(cmd.Context(), in)
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}

	cmd.Flags().StringVarP(&in.ClientID, "client", "c", "", "Client id (required)")
	cmd.Flags().StringVar(&in.PillarID, "pillar", "", "Content pillar id")
	cmd.Flags().BoolVar(&in.IncludeCTA, "cta", false, "Ask for the client's call to action")
	cmd.Flags().BoolVar(&in.AutoExpand, "expand", true, "Expand the idea into a draft right away")
	cmd.Flags().IntVar(&in.TimeInvestedMinutes, "minutes", 0, "Minutes spent on the idea")
	_ = cmd.MarkFlagRequired("client")

	return cmd
}

func expandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expand [post-id]",
		Short: "Expand an idea (or retry a failed expansion) into a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(func(p usecase.PipelineUseCase) error {
				res, err := p.ExpandPost(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
}

func branchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "branch [post-id]",
		Short: "Archive a draft and write its blog version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(func(p usecase.PipelineUseCase) error {
				post, err := p.BranchPost(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(post)
			})
		},
	}
}

func fanoutCmd() *cobra.Command {
	var (
		platforms []string
		podcast   bool
	)

	cmd := &cobra.Command{
		Use:   "fanout [post-id]",
		Short: "Generate platform derivatives for a branched post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := usecase.FanOutInput{IncludePodcast: podcast}
			for _, name := range platforms {
				in.Platforms = append(in.Platforms, entity.DerivativeType(name))
			}
			return withPipeline(func(p usecase.PipelineUseCase) error {
				res, err := p.FanOut(cmd.Context(), args[0], in)
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}

	cmd.Flags().StringSliceVarP(&platforms, "platforms", "p", nil, "Platforms to generate (default: all social platforms)")
	cmd.Flags().BoolVar(&podcast, "podcast", false, "Also create a podcast script placeholder")

	return cmd
}

func listCmd() *cobra.Command {
	var (
		clientID string
		status   string
		postID   string
		kind     string
	)

	cmd := &cobra.Command{
		Use:   "list [posts|derivatives]",
		Short: "List posts or derivatives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(func(p usecase.PipelineUseCase) error {
				switch args[0] {
				case "posts":
					posts, err := p.ListPosts(cmd.Context(), persistent.PostFilter{
						ClientID: clientID,
						Status:   entity.PostStatus(status),
					})
					if err != nil {
						return err
					}
					return printJSON(posts)
				case "derivatives":
					items, err := p.ListDerivatives(cmd.Context(), persistent.DerivativeFilter{
						PostID: postID,
						Status: entity.DerivativeStatus(status),
						Type:   entity.DerivativeType(kind),
					})
					if err != nil {
						return err
					}
					return printJSON(items)
				default:
					return entity.Invalid("unknown listing %q, want posts or derivatives", args[0])
				}
			})
		},
	}

	cmd.Flags().StringVarP(&clientID, "client", "c", "", "Filter posts by client")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status")
	cmd.Flags().StringVar(&postID, "post", "", "Filter derivatives by post")
	cmd.Flags().StringVarP(&kind, "type", "t", "", "Filter derivatives by type")

	return cmd
}
