package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"pwa-push-backend/internal/agent"
	authUsecase "pwa-push-backend/internal/auth/usecase"
	"pwa-push-backend/pkg/config"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	apiURL     string
	adminToken string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "pushctl",
		Short:         "Operate the PWA push backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", getEnv("PUSH_API_URL", "http://localhost:8080/api"), "base URL of the push API")
	root.PersistentFlags().StringVar(&opts.adminToken, "admin-token", getEnv("PUSH_ADMIN_TOKEN", ""), "bearer token for admin routes")

	root.AddCommand(
		newRegisterCmd(opts),
		newEnableCmd(opts),
		newDeactivateCmd(opts),
		newListCmd(opts),
		newSendCmd(opts),
		newBroadcastCmd(opts),
		newAdminTokenCmd(),
		newSimulateCmd(),
	)
	return root
}

func (o *rootOptions) client() *agent.RegistryClient {
	return agent.NewRegistryClient(o.apiURL, agent.WithAdminToken(o.adminToken))
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var userAgent string
	cmd := &cobra.Command{
		Use:   "register <device-token>",
		Short: "Register or reactivate a device token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := opts.client().Register(cmd.Context(), args[0], userAgent)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token %s\n", action)
			return nil
		},
	}
	cmd.Flags().StringVar(&userAgent, "user-agent", "pushctl", "user agent stored with the token")
	return cmd
}

func newEnableCmd(opts *rootOptions) *cobra.Command {
	var userAgent string
	cmd := &cobra.Command{
		Use:   "enable <device-token>",
		Short: "Enable push for a headless device using the server's VAPID key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := opts.client()
			vapidKey, err := client.VAPIDKey(cmd.Context())
			if err != nil {
				return err
			}

			a := agent.New(&agent.StaticMessaging{Token: args[0]}, client, vapidKey, userAgent)
			token, err := a.Enable(cmd.Context())
			if err != nil {
				return err
			}
			if token == "" {
				return fmt.Errorf("push is not available for this device")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "push enabled")
			return nil
		},
	}
	cmd.Flags().StringVar(&userAgent, "user-agent", "pushctl", "user agent stored with the token")
	return cmd
}

func newDeactivateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <device-token>",
		Short: "Soft-delete a device token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().Deactivate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token deactivated")
			return nil
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active device tokens, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokens, err := opts.client().List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range tokens {
				ua := "-"
				if t.UserAgent != nil {
					ua = *t.UserAgent
				}
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", t.ID, t.TokenPreview, t.CreatedAt.Format(time.RFC3339), ua)
			}
			fmt.Fprintf(out, "%d active\n", len(tokens))
			return nil
		},
	}
}

func newSendCmd(opts *rootOptions) *cobra.Command {
	var params agent.SendParams
	cmd := &cobra.Command{
		Use:   "send <device-token>",
		Short: "Send a notification to one device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Token = args[0]
			reply, err := opts.client().Send(cmd.Context(), params)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s (%q)\n", reply.MessageID, reply.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&params.Title, "title", "", "notification title")
	cmd.Flags().StringVar(&params.Body, "body", "", "notification body")
	cmd.Flags().StringToStringVar(&params.Data, "data", nil, "data fields, e.g. --data url=https://app.example/x")
	return cmd
}

func newBroadcastCmd(opts *rootOptions) *cobra.Command {
	var params agent.BroadcastParams
	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Send a notification to every active device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reply, err := opts.client().Broadcast(cmd.Context(), params)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "targeted %d, delivered %d, failed %d, deactivated %d\n",
				reply.Targeted, reply.SuccessCount, reply.FailureCount, reply.Deactivated)
			return nil
		},
	}
	cmd.Flags().StringVar(&params.Title, "title", "", "notification title")
	cmd.Flags().StringVar(&params.Body, "body", "", "notification body")
	cmd.Flags().StringToStringVar(&params.Data, "data", nil, "data fields")
	return cmd
}

func newAdminTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Mint an admin bearer token from ADMIN_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			token, err := authUsecase.NewAdminAuth(cfg.AdminJWTSecret).IssueToken(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "pushctl", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
