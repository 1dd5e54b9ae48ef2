package main

import (
	"encoding/json"
	"fmt"
	"io"
	"kanban/internal/board"
	"kanban/internal/handlers/dto"
	"kanban/internal/models/task"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func checkOutput(format string) error {
	switch format {
	case outputTable, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("неизвестный формат вывода %q", format)
	}
}

// encode пишет значение в json или yaml. Ключи в yaml те же, что в API.
func encode(w io.Writer, format string, value any) error {
	if format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("кодирование ответа: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("кодирование yaml: %w", err)
	}
	return enc.Close()
}

func printTasks(w io.Writer, format string, tasks []*task.Task) error {
	if format != outputTable {
		return encode(w, format, dto.FromTaskList(tasks))
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tTITLE\tASSIGNEE\tDUE\tTAGS")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.UUID, t.Status, orDash(string(t.Priority)), t.Title,
			orDash(t.Assignee), formatDue(t.DueDate), orDash(strings.Join(t.Tags, ",")))
	}
	return tw.Flush()
}

func printTask(w io.Writer, format string, t *task.Task) error {
	if format != outputTable {
		return encode(w, format, dto.FromTask(t))
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", t.UUID)
	fmt.Fprintf(tw, "Title:\t%s\n", t.Title)
	fmt.Fprintf(tw, "Status:\t%s\n", t.Status)
	fmt.Fprintf(tw, "Priority:\t%s\n", orDash(string(t.Priority)))
	fmt.Fprintf(tw, "Assignee:\t%s\n", orDash(t.Assignee))
	fmt.Fprintf(tw, "Due:\t%s\n", formatDue(t.DueDate))
	fmt.Fprintf(tw, "Tags:\t%s\n", orDash(strings.Join(t.Tags, ",")))
	fmt.Fprintf(tw, "Comments:\t%d\n", len(t.Comments))
	if t.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", t.Description)
	}
	return tw.Flush()
}

func printComments(w io.Writer, format string, comments []*task.Comment) error {
	if format != outputTable {
		return encode(w, format, dto.FromCommentList(comments))
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAUTHOR\tCREATED\tCONTENT")
	for _, c := range comments {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			c.UUID, orDash(c.Author), c.CreatedAt.Format(time.DateTime), c.Content)
	}
	return tw.Flush()
}

func printComment(w io.Writer, format string, c *task.Comment) error {
	return printComments(w, format, []*task.Comment{c})
}

func printBoard(w io.Writer, format string, b board.Board) error {
	if format != outputTable {
		return encode(w, format, dto.FromBoard(b))
	}

	for _, column := range b.Columns {
		fmt.Fprintf(w, "== %s (%d) ==\n", column.Title, len(column.Tasks))
		for _, t := range column.Tasks {
			line := fmt.Sprintf("  %s  %s", shortID(t), t.Title)
			if t.Priority != "" {
				line += fmt.Sprintf(" [%s]", t.Priority)
			}
			if t.Assignee != "" {
				line += " @" + t.Assignee
			}
			fmt.Fprintln(w, line)
		}
	}
	if len(b.Unplaced) > 0 {
		fmt.Fprintf(w, "-- вне колонок: %d --\n", len(b.Unplaced))
	}
	return nil
}

func shortID(t *task.Task) string {
	return t.UUID.String()[:8]
}

func formatDue(due *time.Time) string {
	if due == nil {
		return "-"
	}
	return due.Format(time.DateOnly)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
