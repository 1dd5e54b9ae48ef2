package dto

import (
	"kanban/internal/board"
	"kanban/internal/models/task"

	"github.com/google/uuid"
)

func FromBoard(b board.Board) BoardResponse {
	columns := make([]ColumnResponse, len(b.Columns))
	for i, c := range b.Columns {
		columns[i] = ColumnResponse{
			Status: string(c.Status),
			Title:  c.Title,
			Tasks:  FromTaskList(c.Tasks),
		}
	}

	unplaced := b.Unplaced
	if unplaced == nil {
		unplaced = []uuid.UUID{}
	}

	return BoardResponse{Columns: columns, Unplaced: unplaced}
}

// ToBoard восстанавливает доску из ответа API
func (r BoardResponse) ToBoard() board.Board {
	columns := make([]board.Column, len(r.Columns))
	for i, c := range r.Columns {
		tasks := make([]*task.Task, 0, len(c.Tasks))
		for _, t := range c.Tasks {
			tasks = append(tasks, t.ToTask())
		}
		columns[i] = board.Column{Status: task.Status(c.Status), Title: c.Title, Tasks: tasks}
	}
	return board.Board{Columns: columns, Unplaced: r.Unplaced}
}
