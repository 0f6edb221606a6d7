package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/bitfantasy/dealflow/internal/crm/policy"
	"github.com/bitfantasy/dealflow/internal/crm/repository"
)

// StageService 管线阶段服务
type StageService struct {
	repo *repository.StageRepository
}

// NewStageService 创建阶段服务
func NewStageService(repo *repository.StageRepository) *StageService {
	return &StageService{repo: repo}
}

// CreateStageRequest 创建阶段请求
type CreateStageRequest struct {
	Name               string  `json:"name" binding:"required"`
	Order              int     `json:"order" binding:"required"`
	IsClosed           bool    `json:"is_closed"`
	IsWon              bool    `json:"is_won"`
	DefaultProbability float64 `json:"default_probability"`
}

// UpdateStageRequest 更新阶段请求
type UpdateStageRequest struct {
	Name               *string  `json:"name"`
	Order              *int     `json:"order"`
	IsClosed           *bool    `json:"is_closed"`
	IsWon              *bool    `json:"is_won"`
	DefaultProbability *float64 `json:"default_probability"`
}

// List 按管线顺序获取全部阶段
func (s *StageService) List(ctx context.Context) ([]entity.Stage, error) {
	return s.repo.ListOrdered(ctx)
}

// Get 获取阶段详情
func (s *StageService) Get(ctx context.Context, id string) (*entity.Stage, error) {
	return s.repo.FindByID(ctx, id)
}

// Create 创建阶段
func (s *StageService) Create(ctx context.Context, actor policy.Actor, req *CreateStageRequest) (*entity.Stage, error) {
	if !policy.CanMutate(actor, policy.ResourceStage) {
		return nil, ErrForbidden
	}

	stage := &entity.Stage{
		ID:                 newID(),
		Name:               req.Name,
		Order:              req.Order,
		IsClosed:           req.IsClosed,
		IsWon:              req.IsWon,
		DefaultProbability: req.DefaultProbability,
		CreatedAt:          time.Now(),
	}
	if err := stage.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, stage); err != nil {
		return nil, fmt.Errorf("create stage: %w", err)
	}
	return stage, nil
}

// Update 更新阶段。default_probability 只影响之后创建的交易。
func (s *StageService) Update(ctx context.Context, actor policy.Actor, id string, req *UpdateStageRequest) (*entity.Stage, error) {
	if !policy.CanMutate(actor, policy.ResourceStage) {
		return nil, ErrForbidden
	}

	stage, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		stage.Name = *req.Name
	}
	if req.Order != nil {
		stage.Order = *req.Order
	}
	if req.IsClosed != nil {
		stage.IsClosed = *req.IsClosed
	}
	if req.IsWon != nil {
		stage.IsWon = *req.IsWon
	}
	if req.DefaultProbability != nil {
		stage.DefaultProbability = *req.DefaultProbability
	}

	if err := stage.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, stage); err != nil {
		return nil, fmt.Errorf("update stage: %w", err)
	}
	return stage, nil
}

// Delete 删除阶段，仍被交易引用时返回 ErrStageInUse
func (s *StageService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if !policy.CanMutate(actor, policy.ResourceStage) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
