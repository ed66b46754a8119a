package main

import (
	"context"
	"fmt"

	"pwa-push-backend/internal/worker"
	"pwa-push-backend/pkg/config"

	"github.com/spf13/cobra"
)

type simulation struct {
	Visible []*worker.Notification `json:"visible"`
	Clicked bool                   `json:"clicked"`
	Opened  []string               `json:"opened"`
	Focused []string               `json:"focused"`
}

func newSimulateCmd() *cobra.Command {
	var (
		windows []string
		click   bool
		action  string
	)
	cmd := &cobra.Command{
		Use:   "simulate <push-payload-json>",
		Short: "Run a push payload through the notification worker",
		Long: "Feeds the payload to an in-memory worker as a raw push, prints the\n" +
			"visible notification and, with --click, where the click was routed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			result, err := simulate(cmd.Context(), worker.Config{
				DefaultURL:         cfg.AppURL,
				Icon:               cfg.NotificationIcon,
				Badge:              cfg.NotificationBadge,
				Tag:                cfg.NotificationTag,
				RequireInteraction: cfg.RequireInteraction,
			}, []byte(args[0]), windows, click, action)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringSliceVar(&windows, "window", nil, "URL of an already open window (repeatable)")
	cmd.Flags().BoolVar(&click, "click", false, "click the notification after it is shown")
	cmd.Flags().StringVar(&action, "action", "", "action button to click: open or close")
	return cmd
}

func simulate(ctx context.Context, cfg worker.Config, payload []byte, windows []string, click bool, action string) (*simulation, error) {
	platform := worker.NewMemoryPlatform()
	open := make([]*worker.MemoryWindow, len(windows))
	for i, u := range windows {
		open[i] = platform.AddWindow(u)
	}

	w, err := worker.New(cfg, platform, platform)
	if err != nil {
		return nil, err
	}
	if err := w.Dispatch(ctx, worker.PushEvent{Data: payload}); err != nil {
		return nil, err
	}

	result := &simulation{Visible: platform.Visible()}
	if click {
		if len(result.Visible) == 0 {
			return nil, fmt.Errorf("nothing was displayed, cannot click")
		}
		if err := w.Dispatch(ctx, worker.NotificationClickEvent{Notification: result.Visible[0], Action: action}); err != nil {
			return nil, err
		}
		result.Clicked = true
		result.Opened = platform.OpenCalls()
		for _, win := range open {
			if win.Focused() > 0 {
				result.Focused = append(result.Focused, win.URL())
			}
		}
	}
	return result, nil
}
