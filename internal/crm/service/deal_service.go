package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/bitfantasy/dealflow/internal/crm/policy"
	"github.com/bitfantasy/dealflow/internal/crm/repository"
	"github.com/xuri/excelize/v2"
)

// DealService 交易服务
type DealService struct {
	repo        *repository.DealRepository
	stageRepo   *repository.StageRepository
	companyRepo *repository.CompanyRepository
	userRepo    *repository.UserRepository
}

// NewDealService 创建交易服务
func NewDealService(
	repo *repository.DealRepository,
	stageRepo *repository.StageRepository,
	companyRepo *repository.CompanyRepository,
	userRepo *repository.UserRepository,
) *DealService {
	return &DealService{
		repo:        repo,
		stageRepo:   stageRepo,
		companyRepo: companyRepo,
		userRepo:    userRepo,
	}
}

// CreateDealRequest 创建交易请求
type CreateDealRequest struct {
	Title          string     `json:"title" binding:"required"`
	CompanyID      string     `json:"company_id" binding:"required"`
	StageID        string     `json:"stage_id" binding:"required"`
	OwnerID        string     `json:"owner_id"`
	AmountEstimate *float64   `json:"amount_estimate"`
	Probability    *float64   `json:"probability"`
	NextActionAt   *time.Time `json:"next_action_at"`
	Description    string     `json:"description"`
}

// UpdateDealRequest 更新交易请求
type UpdateDealRequest struct {
	Title          *string    `json:"title"`
	CompanyID      *string    `json:"company_id"`
	StageID        *string    `json:"stage_id"`
	OwnerID        *string    `json:"owner_id"`
	AmountEstimate *float64   `json:"amount_estimate"`
	Probability    *float64   `json:"probability"`
	NextActionAt   *time.Time `json:"next_action_at"`
	Description    *string    `json:"description"`
}

// DealListResult 交易列表结果
type DealListResult struct {
	Items      []entity.Deal `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// KanbanColumn 看板单列：一个阶段与该阶段下调用者可见的交易
type KanbanColumn struct {
	Stage entity.Stage  `json:"stage"`
	Deals []entity.Deal `json:"deals"`
	Count int           `json:"count"`
}

// List 在可见范围内分页获取交易
func (s *DealService) List(ctx context.Context, actor policy.Actor, page, pageSize int, filters map[string]interface{}) (*DealListResult, error) {
	deals, total, err := s.repo.List(ctx, page, pageSize, filters, policy.Scope(actor, policy.ResourceDeal))
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}

	now := time.Now()
	for i := range deals {
		deals[i].Decorate(now)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &DealListResult{
		Items:      deals,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Get 在可见范围内获取交易详情
func (s *DealService) Get(ctx context.Context, actor policy.Actor, id string) (*entity.Deal, error) {
	deal, err := s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceDeal))
	if err != nil {
		return nil, err
	}
	deal.Decorate(time.Now())
	return deal, nil
}

// Create 创建交易。负责人缺省为当前用户；概率缺省或为零时
// 取阶段的默认概率，只在创建时生效，更新不再回填。
func (s *DealService) Create(ctx context.Context, actor policy.Actor, req *CreateDealRequest) (*entity.Deal, error) {
	if !policy.CanMutate(actor, policy.ResourceDeal) {
		return nil, ErrForbidden
	}

	if _, err := s.companyRepo.FindByID(ctx, req.CompanyID); err != nil {
		if err == repository.ErrNotFound {
			return nil, &entity.ValidationError{Field: "company_id", Message: "company does not exist"}
		}
		return nil, err
	}

	stage, err := s.stageRepo.FindByID(ctx, req.StageID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &entity.ValidationError{Field: "stage_id", Message: "stage does not exist"}
		}
		return nil, err
	}

	ownerID := req.OwnerID
	if ownerID == "" {
		ownerID = actor.ID
	} else if _, err := s.userRepo.FindByID(ctx, ownerID); err != nil {
		if err == repository.ErrNotFound {
			return nil, &entity.ValidationError{Field: "owner_id", Message: "owner does not exist"}
		}
		return nil, err
	}

	probability := 0.0
	if req.Probability != nil {
		probability = *req.Probability
	}
	if probability < 0 || probability > 1 {
		return nil, &entity.ValidationError{Field: "probability", Message: "probability must be between 0 and 1"}
	}
	if probability == 0 {
		probability = stage.DefaultProbability
	}

	now := time.Now()
	deal := &entity.Deal{
		ID:             newID(),
		Title:          req.Title,
		CompanyID:      req.CompanyID,
		OwnerID:        ownerID,
		StageID:        req.StageID,
		AmountEstimate: req.AmountEstimate,
		Probability:    probability,
		NextActionAt:   req.NextActionAt,
		Description:    req.Description,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, deal); err != nil {
		return nil, fmt.Errorf("create deal: %w", err)
	}

	return s.Get(ctx, actor, deal.ID)
}

// Update 更新交易字段，不重新应用阶段默认概率
func (s *DealService) Update(ctx context.Context, actor policy.Actor, id string, req *UpdateDealRequest) (*entity.Deal, error) {
	deal, err := s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceDeal))
	if err != nil {
		return nil, err
	}
	if !policy.CanMutateDeal(actor, deal.OwnerID) || !policy.CanMutate(actor, policy.ResourceDeal) {
		return nil, ErrForbidden
	}

	if req.Title != nil {
		deal.Title = *req.Title
	}
	if req.CompanyID != nil {
		if _, err := s.companyRepo.FindByID(ctx, *req.CompanyID); err != nil {
			if err == repository.ErrNotFound {
				return nil, &entity.ValidationError{Field: "company_id", Message: "company does not exist"}
			}
			return nil, err
		}
		deal.CompanyID = *req.CompanyID
	}
	if req.StageID != nil {
		if _, err := s.stageRepo.FindByID(ctx, *req.StageID); err != nil {
			if err == repository.ErrNotFound {
				return nil, &entity.ValidationError{Field: "stage_id", Message: "stage does not exist"}
			}
			return nil, err
		}
		deal.StageID = *req.StageID
	}
	if req.OwnerID != nil {
		if _, err := s.userRepo.FindByID(ctx, *req.OwnerID); err != nil {
			if err == repository.ErrNotFound {
				return nil, &entity.ValidationError{Field: "owner_id", Message: "owner does not exist"}
			}
			return nil, err
		}
		deal.OwnerID = *req.OwnerID
	}
	if req.AmountEstimate != nil {
		deal.AmountEstimate = req.AmountEstimate
	}
	if req.Probability != nil {
		if *req.Probability < 0 || *req.Probability > 1 {
			return nil, &entity.ValidationError{Field: "probability", Message: "probability must be between 0 and 1"}
		}
		deal.Probability = *req.Probability
	}
	if req.NextActionAt != nil {
		deal.NextActionAt = req.NextActionAt
	}
	if req.Description != nil {
		deal.Description = *req.Description
	}
	deal.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, deal); err != nil {
		return nil, fmt.Errorf("update deal: %w", err)
	}
	return s.Get(ctx, actor, id)
}

// Delete 删除交易
func (s *DealService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	deal, err := s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceDeal))
	if err != nil {
		return err
	}
	if !policy.CanMutateDeal(actor, deal.OwnerID) || !policy.CanMutate(actor, policy.ResourceDeal) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// MoveStage 把交易移动到新阶段，可选地把概率重置为新阶段默认值
func (s *DealService) MoveStage(ctx context.Context, actor policy.Actor, id, stageID string, updateProbability bool) (*entity.Deal, error) {
	deal, err := s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceDeal))
	if err != nil {
		return nil, err
	}
	if !policy.CanMutateDeal(actor, deal.OwnerID) {
		return nil, ErrForbidden
	}

	stage, err := s.stageRepo.FindByID(ctx, stageID)
	if err != nil {
		return nil, err
	}

	deal.StageID = stage.ID
	if updateProbability {
		deal.Probability = stage.DefaultProbability
	}
	deal.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, deal); err != nil {
		return nil, fmt.Errorf("move stage: %w", err)
	}
	return s.Get(ctx, actor, id)
}

// Kanban 按阶段分组返回可见交易。空阶段也保留一列。
func (s *DealService) Kanban(ctx context.Context, actor policy.Actor, filters map[string]interface{}) ([]KanbanColumn, error) {
	stages, err := s.stageRepo.ListOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}

	deals, err := s.repo.ListAll(ctx, filters, policy.Scope(actor, policy.ResourceDeal))
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}

	now := time.Now()
	byStage := make(map[string][]entity.Deal, len(stages))
	for i := range deals {
		deals[i].Decorate(now)
		byStage[deals[i].StageID] = append(byStage[deals[i].StageID], deals[i])
	}

	columns := make([]KanbanColumn, 0, len(stages))
	for _, stage := range stages {
		group := byStage[stage.ID]
		if group == nil {
			group = []entity.Deal{}
		}
		columns = append(columns, KanbanColumn{
			Stage: stage,
			Deals: group,
			Count: len(group),
		})
	}
	return columns, nil
}

// ExportExcel 把调用者可见的管线导出为 xlsx
func (s *DealService) ExportExcel(ctx context.Context, actor policy.Actor, filters map[string]interface{}) ([]byte, error) {
	deals, err := s.repo.ListAll(ctx, filters, policy.Scope(actor, policy.ResourceDeal))
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Pipeline"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Title", "Company", "Stage", "Owner", "Amount Estimate", "Probability", "Expected Value", "Next Action"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, deal := range deals {
		values := []interface{}{deal.Title, "", "", "", nil, deal.Probability, nil, nil}
		if deal.Company != nil {
			values[1] = deal.Company.Name
		}
		if deal.Stage != nil {
			values[2] = deal.Stage.Name
		}
		if deal.Owner != nil {
			values[3] = deal.Owner.FullName()
		}
		if deal.AmountEstimate != nil {
			values[4] = *deal.AmountEstimate
		}
		if ev := deal.ExpectedValueAt(); ev != nil {
			values[6] = *ev
		}
		if deal.NextActionAt != nil {
			values[7] = deal.NextActionAt.Format(time.RFC3339)
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
