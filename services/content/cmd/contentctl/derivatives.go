package main

import (
	"fmt"
	"time"

	"content-engine/services/content/internal/schedule"
	"content-engine/services/content/internal/usecase"

	"github.com/spf13/cobra"
)

func approveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve [derivative-id...]",
		Short: "Approve derivatives for scheduling",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(func(p usecase.PipelineUseCase) error {
				for _, id := range args {
					d, err := p.ApproveDerivative(cmd.Context(), id)
					if err != nil {
						return fmt.Errorf("approve %s: %w", id, err)
					}
					fmt.Printf("%s %s approved\n", d.ID, d.Type)
				}
				return nil
			})
		},
	}
}

func scheduleCmd() *cobra.Command {
	var (
		newsletterAt string
		telegramAt   string
		socialAt     string
		stagger      int
	)

	cmd := &cobra.Command{
		Use:   "schedule [post-id]",
		Short: "Queue a post's approved derivatives for publication",
		Long: `Queue a post's approved derivatives. Times are RFC 3339.
Social posts after the first are staggered by --stagger hours.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg schedule.Config
			var err error
			if cfg.NewsletterSendAt, err = parseTime("newsletter-at", newsletterAt); err != nil {
				return err
			}
			if cfg.TelegramSendAt, err = parseTime("telegram-at", telegramAt); err != nil {
				return err
			}
			if cfg.SocialStartAt, err = parseTime("social-at", socialAt); err != nil {
				return err
			}
			if cmd.Flags().Changed("stagger") {
				cfg.SocialStaggerHours = &stagger
			}

			return withPipeline(func(p usecase.PipelineUseCase) error {
				res, err := p.ScheduleDerivatives(cmd.Context(), args[0], cfg)
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}

	cmd.Flags().StringVar(&newsletterAt, "newsletter-at", "", "Newsletter send time")
	cmd.Flags().StringVar(&telegramAt, "telegram-at", "", "Telegram send time")
	cmd.Flags().StringVar(&socialAt, "social-at", "", "First social post time")
	cmd.Flags().IntVar(&stagger, "stagger", 0, "Hours between social posts of one platform")

	return cmd
}

func parseTime(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	return &t, nil
}

func publishDueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish-due",
		Short: "Publish every queued derivative whose time has come",
		Long: `Run one publish sweep and exit. Suitable for cron when the
worker is not running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(func(p usecase.PipelineUseCase) error {
				res, err := p.PublishQueuedDerivatives(cmd.Context(), time.Now().UTC())
				if err != nil {
					return err
				}
				if err := printJSON(res); err != nil {
					return err
				}
				if len(res.Failed) > 0 {
					return fmt.Errorf("%d derivatives failed to publish", len(res.Failed))
				}
				return nil
			})
		},
	}
}
