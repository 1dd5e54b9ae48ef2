package main

import (
	"fmt"
	"kanban/internal/models/task"
	"kanban/internal/service"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func tasksCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "Работа с задачами",
	}

	cmd.AddCommand(tasksListCmd(c))
	cmd.AddCommand(tasksGetCmd(c))
	cmd.AddCommand(tasksCreateCmd(c))
	cmd.AddCommand(tasksUpdateCmd(c))
	cmd.AddCommand(tasksMoveCmd(c))
	cmd.AddCommand(tasksDeleteCmd(c))
	return cmd
}

func tasksListCmd(c *cli) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Список задач",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := c.store.ListTasks(cmd.Context())
			if err != nil {
				return err
			}

			if status != "" {
				want, err := parseStatus(status)
				if err != nil {
					return err
				}
				filtered := make([]*task.Task, 0, len(tasks))
				for _, t := range tasks {
					if t.Status == want {
						filtered = append(filtered, t)
					}
				}
				tasks = filtered
			}

			return printTasks(cmd.OutOrStdout(), c.output, tasks)
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "только задачи с этим статусом")
	return cmd
}

func tasksGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Показать задачу",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := c.store.GetTask(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printTask(cmd.OutOrStdout(), c.output, t)
		},
	}
}

func tasksCreateCmd(c *cli) *cobra.Command {
	var (
		input    service.CreateTaskInput
		status   string
		priority string
		due      string
	)

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Создать задачу",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Title = args[0]

			if status != "" {
				parsed, err := parseStatus(status)
				if err != nil {
					return err
				}
				input.Status = parsed
			}

			parsedPriority, err := parsePriority(priority)
			if err != nil {
				return err
			}
			input.Priority = parsedPriority

			if due != "" {
				parsedDue, err := parseDue(due)
				if err != nil {
					return err
				}
				input.DueDate = &parsedDue
			}

			created, err := c.store.CreateTask(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printTask(cmd.OutOrStdout(), c.output, created)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&input.Description, "description", "d", "", "описание")
	flags.StringVarP(&status, "status", "s", "", "статус (по умолчанию todo)")
	flags.StringVarP(&priority, "priority", "p", "", "приоритет: low, medium, high")
	flags.StringVarP(&input.Assignee, "assignee", "a", "", "исполнитель")
	flags.StringVar(&due, "due", "", "срок: 2006-01-02 или RFC3339")
	flags.StringSliceVarP(&input.Tags, "tag", "t", nil, "теги, можно несколько")
	return cmd
}

func tasksUpdateCmd(c *cli) *cobra.Command {
	var (
		title, description, status, priority, assignee, due string
		tags                                                []string
		clearDue                                            bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Изменить поля задачи. Меняются только переданные флаги",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			var patch task.Patch
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("assignee") {
				patch.Assignee = &assignee
			}
			if flags.Changed("tag") {
				patch.Tags = &tags
			}
			if flags.Changed("status") {
				parsed, err := parseStatus(status)
				if err != nil {
					return err
				}
				patch.Status = &parsed
			}
			if flags.Changed("priority") {
				parsed, err := parsePriority(priority)
				if err != nil {
					return err
				}
				patch.Priority = &parsed
			}
			if flags.Changed("due") {
				parsed, err := parseDue(due)
				if err != nil {
					return err
				}
				patch.DueDate = &parsed
			}
			patch.ClearDue = clearDue

			updated, err := c.store.UpdateTask(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			return printTask(cmd.OutOrStdout(), c.output, updated)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&title, "title", "", "название")
	flags.StringVarP(&description, "description", "d", "", "описание")
	flags.StringVarP(&status, "status", "s", "", "статус")
	flags.StringVarP(&priority, "priority", "p", "", "приоритет: low, medium, high или пусто")
	flags.StringVarP(&assignee, "assignee", "a", "", "исполнитель")
	flags.StringVar(&due, "due", "", "срок: 2006-01-02 или RFC3339")
	flags.BoolVar(&clearDue, "clear-due", false, "снять срок")
	flags.StringSliceVarP(&tags, "tag", "t", nil, "заменить теги")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}

func tasksMoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Перенести задачу в другую колонку",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := parseStatus(args[1])
			if err != nil {
				return err
			}

			moved, err := c.store.MoveTask(cmd.Context(), id, status)
			if err != nil {
				return err
			}
			return printTask(cmd.OutOrStdout(), c.output, moved)
		},
	}
}

func tasksDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Удалить задачу вместе с комментариями",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := c.store.DeleteTask(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "задача %s удалена\n", id)
			return nil
		},
	}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("неверный идентификатор %q: %w", raw, err)
	}
	return id, nil
}

func parseStatus(raw string) (task.Status, error) {
	status, ok := task.ParseStatus(raw)
	if !ok {
		return "", fmt.Errorf("неизвестный статус %q", raw)
	}
	return status, nil
}

func parsePriority(raw string) (task.Priority, error) {
	priority, ok := task.ParsePriority(raw)
	if !ok {
		return "", fmt.Errorf("неизвестный приоритет %q", raw)
	}
	return priority, nil
}

func parseDue(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("неверный срок %q: ожидается 2006-01-02 или RFC3339", raw)
	}
	return t.UTC(), nil
}
