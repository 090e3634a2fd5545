package client

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidStatus signals a status value outside the client lifecycle enum.
var ErrInvalidStatus = errors.New("client: invalid status")

// Service wraps the repository with workflow-level validation.
type Service struct {
	repo Repository
}

type ListResult struct {
	Items []Client
	Total int
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (Client, error) {
	if id == "" {
		return Client{}, fmt.Errorf("client: missing id")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filters Filters) (ListResult, error) {
	if filters.Status != "" && !IsValidStatus(filters.Status) {
		return ListResult{}, fmt.Errorf("%w: filter %q", ErrInvalidStatus, filters.Status)
	}
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

// UpdateStatus applies a manual status change, e.g. a coordinator moving a
// replied client to ready_to_schedule or closing an exhausted one.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (Client, error) {
	if id == "" {
		return Client{}, fmt.Errorf("client: missing id")
	}
	if !IsValidStatus(status) {
		return Client{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (Client, error) {
	if id == "" {
		return Client{}, fmt.Errorf("client: missing id")
	}
	if params.Status != nil && !IsValidStatus(*params.Status) {
		return Client{}, fmt.Errorf("%w: %q", ErrInvalidStatus, *params.Status)
	}
	return s.repo.Update(ctx, id, params)
}
