package template

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, stage int) ([]Record, error) {
	return s.repo.List(ctx, stage)
}

func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, name string, stage int, subject, body string) (Record, error) {
	if strings.TrimSpace(name) == "" {
		return Record{}, fmt.Errorf("template: name required")
	}
	if stage < 1 {
		return Record{}, fmt.Errorf("template: invalid stage %d", stage)
	}
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(body) == "" {
		return Record{}, fmt.Errorf("template: subject and body required")
	}
	return s.repo.Create(ctx, name, stage, subject, body)
}

func (s *Service) Update(ctx context.Context, id, subject, body string) (Record, error) {
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(body) == "" {
		return Record{}, fmt.Errorf("template: subject and body required")
	}
	return s.repo.Update(ctx, id, subject, body)
}

func (s *Service) Publish(ctx context.Context, id string) (Record, error) {
	return s.repo.Publish(ctx, id)
}
