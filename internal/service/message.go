package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

const maxMessageLen = 5000

type MessageService struct {
	Repo *repo.GormRepo
}

func (s *MessageService) Submit(ctx context.Context, req transport.MessageRequest) (*models.Message, error) {
	m := &models.Message{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Subject: strings.TrimSpace(req.Subject),
		Body:    strings.TrimSpace(req.Body),
	}
	if m.Name == "" || m.Body == "" {
		return nil, fmt.Errorf("%w: name and message required", ErrValidation)
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return nil, fmt.Errorf("%w: valid email required", ErrValidation)
	}
	if len(m.Body) > maxMessageLen {
		return nil, fmt.Errorf("%w: message too long", ErrValidation)
	}
	if err := s.Repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MessageService) List(ctx context.Context, unreadOnly bool, page, size int) (*util.Page[models.Message], error) {
	offset, limit := util.Calculate(page, size)
	total, msgs, err := s.Repo.ListMessages(ctx, unreadOnly, offset, limit)
	if err != nil {
		return nil, err
	}
	return &util.Page[models.Message]{Data: msgs, Meta: util.NewMeta(page, offset, limit, total)}, nil
}

func (s *MessageService) MarkRead(ctx context.Context, id uuid.UUID) error {
	return notFound(s.Repo.MarkMessageRead(ctx, id))
}

func (s *MessageService) Delete(ctx context.Context, id uuid.UUID) error {
	return notFound(s.Repo.DeleteMessage(ctx, id))
}
