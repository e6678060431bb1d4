// internal/app/features/tasks/input.go
package tasks

import (
	"strings"
	"time"

	taskstore "github.com/dalemusser/studytrack/internal/app/store/tasks"
	"github.com/dalemusser/studytrack/internal/app/system/apperr"
	"github.com/dalemusser/studytrack/internal/app/system/inputval"
	"github.com/dalemusser/studytrack/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createInput struct {
	Title       string     `json:"title" validate:"required,max=200" label:"Title"`
	Description string     `json:"description" validate:"max=5000" label:"Description"`
	Status      string     `json:"status" validate:"omitempty,taskstatus" label:"Status"`
	Priority    string     `json:"priority" validate:"omitempty,priority" label:"Priority"`
	DueDate     *time.Time `json:"dueDate"`
}

func (in createInput) task(owner primitive.ObjectID) (models.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if res := inputval.Validate(in); res.HasErrors() {
		return models.Task{}, apperr.InvalidInput(res.First())
	}
	t := models.Task{
		OwnerID:     owner,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
	}
	if in.DueDate != nil {
		d := in.DueDate.UTC()
		t.DueDate = &d
	}
	return t, nil
}

// patchInput is a partial update. A JSON null cannot clear the due date,
// so clearDueDate does that.
type patchInput struct {
	Title       *string    `json:"title" validate:"omitempty,max=200" label:"Title"`
	Description *string    `json:"description" validate:"omitempty,max=5000" label:"Description"`
	Status      *string    `json:"status" validate:"omitempty,taskstatus" label:"Status"`
	Priority    *string    `json:"priority" validate:"omitempty,priority" label:"Priority"`
	DueDate     *time.Time `json:"dueDate"`
	ClearDue    bool       `json:"clearDueDate"`
}

func (in patchInput) update() (taskstore.Update, error) {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return taskstore.Update{}, apperr.InvalidInput("Title is required.")
		}
		in.Title = &t
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		in.Description = &d
	}
	if res := inputval.Validate(in); res.HasErrors() {
		return taskstore.Update{}, apperr.InvalidInput(res.First())
	}
	return taskstore.Update{
		Title:        in.Title,
		Description:  in.Description,
		Status:       in.Status,
		Priority:     in.Priority,
		DueDate:      in.DueDate,
		ClearDueDate: in.ClearDue,
	}, nil
}
