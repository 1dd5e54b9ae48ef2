package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func commentsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"comment", "c"},
		Short:   "Комментарии к задачам",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <task-id>",
		Short: "Комментарии задачи",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			comments, err := c.store.ListComments(cmd.Context(), taskID)
			if err != nil {
				return err
			}
			return printComments(cmd.OutOrStdout(), c.output, comments)
		},
	})

	cmd.AddCommand(commentsAddCmd(c))

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Удалить комментарий",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.store.DeleteComment(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "комментарий %s удалён\n", id)
			return nil
		},
	})

	return cmd
}

func commentsAddCmd(c *cli) *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "add <task-id> <text...>",
		Short: "Добавить комментарий",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			content := strings.Join(args[1:], " ")

			created, err := c.store.CreateComment(cmd.Context(), taskID, content, author)
			if err != nil {
				return err
			}
			return printComment(cmd.OutOrStdout(), c.output, created)
		},
	}

	cmd.Flags().StringVarP(&author, "author", "a", "", "автор")
	return cmd
}
