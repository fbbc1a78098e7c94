package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jo-hoe/goscore/internal/client"
)

type clientOptions struct {
	server string
}

func newClientCmd(opts *options) *cobra.Command {
	clientOpts := &clientOptions{}
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Talk to a running goscore server",
	}
	cmd.PersistentFlags().StringVar(&clientOpts.server, "server", "",
		"server base URL (default http://localhost:<configured port>)")

	newClient := func() (*client.Client, error) {
		server := clientOpts.server
		if server == "" {
			config, err := loadConfig(opts)
			if err != nil {
				return nil, err
			}
			server = fmt.Sprintf("http://localhost:%d", config.Port)
		}
		return client.New(server, nil), nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "random <count>",
			Short: "List random images",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				count, err := strconv.Atoi(args[0])
				if err != nil || count < 0 {
					return fmt.Errorf("count must be a non-negative integer, got %q", args[0])
				}
				c, err := newClient()
				if err != nil {
					return err
				}
				items, err := c.RandomImages(cmd.Context(), count)
				if err != nil {
					return err
				}
				for _, item := range items {
					printStatus(cmd.OutOrStdout(), item.ID, "%s", item.URL)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "submit <image_id> <score>",
			Short: "Submit a score for an image",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				score, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("score must be an integer, got %q", args[1])
				}
				c, err := newClient()
				if err != nil {
					return err
				}
				message, err := c.SubmitScore(cmd.Context(), args[0], score)
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "%s", message)
				return nil
			},
		},
		&cobra.Command{
			Use:   "scores <image_id>",
			Short: "Show the scores of an image",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := newClient()
				if err != nil {
					return err
				}
				scores, err := c.Scores(cmd.Context(), args[0])
				if client.IsNotFound(err) {
					printWarning(cmd.OutOrStdout(), "no scores for %s", args[0])
					return nil
				}
				if err != nil {
					return err
				}

				var sum int64
				for _, s := range scores {
					printStatus(cmd.OutOrStdout(), "score", "%d", s)
					sum += s
				}
				printSuccess(cmd.OutOrStdout(), "%d scores, mean %.2f", len(scores), float64(sum)/float64(len(scores)))
				return nil
			},
		},
	)
	return cmd
}
