package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/config"
	"github.com/gurkanbulca/taskpulse/internal/models"
	"github.com/gurkanbulca/taskpulse/internal/repository"
)

type CommentService struct {
	store  *repository.Store
	clock  Clock
	limits config.ValidationConfig
}

func NewCommentService(store *repository.Store, clock Clock, limits config.ValidationConfig) *CommentService {
	return &CommentService{store: store, clock: clock, limits: limits}
}

// loadForComments resolves a task the actor may comment on: participants and
// admins. Everyone else gets NotFound.
func (s *CommentService) loadForComments(ctx context.Context, actor *Actor, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.store.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, translate(err, "task", "get task")
	}
	if !task.IsParticipant(actor.ID()) && !actor.IsAdmin() {
		return nil, notFound("task not found")
	}
	return task, nil
}

func (s *CommentService) validate(content string) error {
	v := newValidator(s.limits)
	if strings.TrimSpace(content) == "" {
		v.addf("content is required")
	}
	v.maxLen("content", content, s.limits.MaxCommentLength)
	return v.err()
}

// AddComment posts on a task. Only staff may post internal comments.
func (s *CommentService) AddComment(ctx context.Context, actor *Actor, taskID uuid.UUID, content string, internal bool) (*models.Comment, error) {
	if err := s.validate(content); err != nil {
		return nil, err
	}
	if internal && !actor.IsStaff() {
		return nil, forbidden("only staff may post internal comments")
	}

	task, err := s.loadForComments(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	comment := &models.Comment{
		ID:         uuid.New(),
		TaskID:     task.ID,
		UserID:     actor.ID(),
		Content:    strings.TrimSpace(content),
		IsInternal: internal,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Comments.Create(ctx, comment); err != nil {
		return nil, translate(err, "comment", "create comment")
	}
	return comment, nil
}

// ListComments returns the task's comments, hiding internal ones from
// non-staff.
func (s *CommentService) ListComments(ctx context.Context, actor *Actor, taskID uuid.UUID) ([]*models.Comment, error) {
	task, err := s.loadForComments(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.Comments.ListByTask(ctx, task.ID, actor.IsStaff())
	if err != nil {
		return nil, storage("list comments", err)
	}
	return comments, nil
}

// UpdateComment edits content. Only the author may edit, and only staff may
// flip the internal flag.
func (s *CommentService) UpdateComment(ctx context.Context, actor *Actor, id uuid.UUID, content *string, internal *bool) (*models.Comment, error) {
	if content != nil {
		if err := s.validate(*content); err != nil {
			return nil, err
		}
	}

	comment, err := s.visibleComment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actor.ID() {
		return nil, forbidden("only the author may edit this comment")
	}
	if internal != nil && *internal != comment.IsInternal && !actor.IsStaff() {
		return nil, forbidden("only staff may change comment visibility")
	}

	if content != nil {
		comment.Content = strings.TrimSpace(*content)
	}
	if internal != nil {
		comment.IsInternal = *internal
	}
	comment.UpdatedAt = s.clock.Now()

	if err := s.store.Comments.Update(ctx, comment); err != nil {
		return nil, translate(err, "comment", "update comment")
	}
	return comment, nil
}

// DeleteComment removes a comment. The author or an admin may delete.
func (s *CommentService) DeleteComment(ctx context.Context, actor *Actor, id uuid.UUID) error {
	comment, err := s.visibleComment(ctx, actor, id)
	if err != nil {
		return err
	}
	if comment.UserID != actor.ID() && !actor.IsAdmin() {
		return forbidden("only the author or an admin may delete this comment")
	}
	return translate(s.store.Comments.Delete(ctx, comment.ID), "comment", "delete comment")
}

// visibleComment loads a comment the actor can see. Internal comments are
// invisible to non-staff, as are comments on tasks they cannot open.
func (s *CommentService) visibleComment(ctx context.Context, actor *Actor, id uuid.UUID) (*models.Comment, error) {
	comment, err := s.store.Comments.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "comment", "get comment")
	}
	if comment.IsInternal && !actor.IsStaff() {
		return nil, notFound("comment not found")
	}
	if _, err := s.loadForComments(ctx, actor, comment.TaskID); err != nil {
		if KindOf(err) == KindNotFound {
			return nil, notFound("comment not found")
		}
		return nil, err
	}
	return comment, nil
}
