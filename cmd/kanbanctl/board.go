package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"kanban/internal/board"
	"kanban/internal/models/task"
	"kanban/internal/worker"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const clearScreen = "\033[H\033[2J"

func boardCmd(c *cli) *cobra.Command {
	var (
		search   string
		priority string
		watch    bool
		server   bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Показать доску по колонкам",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := board.ParseFilter(search, priority)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if server {
				if watch {
					return errors.New("--server не сочетается с --watch")
				}
				projected, err := c.store.Board(cmd.Context(), search, priority)
				if err != nil {
					return err
				}
				return printBoard(out, c.output, projected)
			}

			tasks, err := c.store.ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			if !watch {
				return printBoard(out, c.output, board.Project(tasks, task.Statuses, filter))
			}

			if !cmd.Flags().Changed("interval") {
				interval = c.cfg.Worker.RefreshInterval
			}
			return c.watchBoard(cmd.Context(), out, tasks, filter, interval)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&search, "search", "s", "", "поиск по названию, описанию, исполнителю и тегам")
	flags.StringVarP(&priority, "priority", "p", board.PriorityAll, "фильтр приоритета: all, low, medium, high")
	flags.BoolVarP(&watch, "watch", "w", false, "перерисовывать доску при обновлении")
	flags.BoolVar(&server, "server", false, "собрать доску на сервере (GET /board)")
	flags.DurationVar(&interval, "interval", 30*time.Second, "период обновления для --watch")

	cmd.AddCommand(boardDropCmd(c))
	return cmd
}

// watchBoard перерисовывает доску после каждого обновления до Ctrl+C
func (c *cli) watchBoard(ctx context.Context, out io.Writer, tasks []*task.Task, filter board.Filter, interval time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	redraw := func(tasks []*task.Task) {
		if c.output == outputTable {
			fmt.Fprint(out, clearScreen)
			fmt.Fprintf(out, "%s  (обновление каждые %s, Ctrl+C для выхода)\n\n", time.Now().Format(time.TimeOnly), interval)
		}
		if err := printBoard(out, c.output, board.Project(tasks, task.Statuses, filter)); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	redraw(tasks)
	worker.NewRefresher(c.store, &interval, redraw).Start(ctx)
	return nil
}

func boardDropCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <task-id> <status>",
		Short: "Перетащить карточку в колонку",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			target, ok := task.ParseStatus(args[1])
			if !ok {
				target = task.Status(args[1])
			}

			tasks, err := c.store.ListTasks(cmd.Context())
			if err != nil {
				return err
			}

			moved, changed, err := board.Drop(cmd.Context(), c.store, tasks, id, target)
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintln(cmd.OutOrStdout(), "ничего не изменилось")
				return nil
			}
			return printTask(cmd.OutOrStdout(), c.output, moved)
		},
	}
}
