package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/bitfantasy/dealflow/internal/crm/policy"
	"github.com/bitfantasy/dealflow/internal/crm/repository"
)

// InteractionService 互动记录服务
type InteractionService struct {
	repo        *repository.InteractionRepository
	contactRepo *repository.ContactRepository
}

// NewInteractionService 创建互动记录服务
func NewInteractionService(repo *repository.InteractionRepository, contactRepo *repository.ContactRepository) *InteractionService {
	return &InteractionService{repo: repo, contactRepo: contactRepo}
}

// CreateInteractionRequest 创建互动记录请求
type CreateInteractionRequest struct {
	Type       string     `json:"type" binding:"required"`
	Subject    string     `json:"subject" binding:"required"`
	Body       string     `json:"body"`
	OccurredAt *time.Time `json:"occurred_at"`
	DealID     *string    `json:"deal_id"`
	CompanyID  *string    `json:"company_id"`
	ContactID  *string    `json:"contact_id"`
}

// UpdateInteractionRequest 更新互动记录请求
type UpdateInteractionRequest struct {
	Type       *string    `json:"type"`
	Subject    *string    `json:"subject"`
	Body       *string    `json:"body"`
	OccurredAt *time.Time `json:"occurred_at"`
	DealID     *string    `json:"deal_id"`
	CompanyID  *string    `json:"company_id"`
	ContactID  *string    `json:"contact_id"`
}

// List 在可见范围内分页获取互动记录
func (s *InteractionService) List(ctx context.Context, actor policy.Actor, page, pageSize int, filters map[string]interface{}) ([]entity.Interaction, int64, error) {
	interactions, total, err := s.repo.List(ctx, page, pageSize, filters, policy.Scope(actor, policy.ResourceInteraction))
	if err != nil {
		return nil, 0, fmt.Errorf("list interactions: %w", err)
	}
	for i := range interactions {
		interactions[i].Decorate()
	}
	return interactions, total, nil
}

// Get 在可见范围内获取互动记录详情
func (s *InteractionService) Get(ctx context.Context, actor policy.Actor, id string) (*entity.Interaction, error) {
	interaction, err := s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceInteraction))
	if err != nil {
		return nil, err
	}
	interaction.Decorate()
	return interaction, nil
}

// resolveContact 联系人ID存在时取联系人，用于补全公司
func (s *InteractionService) resolveContact(ctx context.Context, contactID *string) (*entity.Contact, error) {
	if contactID == nil || *contactID == "" {
		return nil, nil
	}
	contact, err := s.contactRepo.FindByID(ctx, *contactID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, &entity.ValidationError{Field: "contact_id", Message: "contact does not exist"}
		}
		return nil, err
	}
	return contact, nil
}

// Create 创建互动记录，作者为当前用户
func (s *InteractionService) Create(ctx context.Context, actor policy.Actor, req *CreateInteractionRequest) (*entity.Interaction, error) {
	if !policy.CanMutate(actor, policy.ResourceInteraction) {
		return nil, ErrForbidden
	}

	occurredAt := time.Now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	now := time.Now()
	interaction := &entity.Interaction{
		ID:         newID(),
		Type:       req.Type,
		Subject:    req.Subject,
		Body:       req.Body,
		OccurredAt: occurredAt,
		AuthorID:   actor.ID,
		DealID:     emptyToNil(req.DealID),
		CompanyID:  emptyToNil(req.CompanyID),
		ContactID:  emptyToNil(req.ContactID),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	contact, err := s.resolveContact(ctx, interaction.ContactID)
	if err != nil {
		return nil, err
	}
	interaction.Normalize(contact)

	if err := interaction.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, interaction); err != nil {
		return nil, fmt.Errorf("create interaction: %w", err)
	}
	return s.Get(ctx, actor, interaction.ID)
}

// Update 更新互动记录
func (s *InteractionService) Update(ctx context.Context, actor policy.Actor, id string, req *UpdateInteractionRequest) (*entity.Interaction, error) {
	interaction, err := s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceInteraction))
	if err != nil {
		return nil, err
	}
	if !policy.CanMutate(actor, policy.ResourceInteraction) {
		return nil, ErrForbidden
	}

	if req.Type != nil {
		interaction.Type = *req.Type
	}
	if req.Subject != nil {
		interaction.Subject = *req.Subject
	}
	if req.Body != nil {
		interaction.Body = *req.Body
	}
	if req.OccurredAt != nil {
		interaction.OccurredAt = *req.OccurredAt
	}
	if req.DealID != nil {
		interaction.DealID = emptyToNil(req.DealID)
	}
	if req.CompanyID != nil {
		interaction.CompanyID = emptyToNil(req.CompanyID)
	}
	if req.ContactID != nil {
		interaction.ContactID = emptyToNil(req.ContactID)
	}

	contact, err := s.resolveContact(ctx, interaction.ContactID)
	if err != nil {
		return nil, err
	}
	interaction.Normalize(contact)

	if err := interaction.Validate(); err != nil {
		return nil, err
	}
	interaction.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, interaction); err != nil {
		return nil, fmt.Errorf("update interaction: %w", err)
	}
	return s.Get(ctx, actor, id)
}

// Delete 删除互动记录
func (s *InteractionService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if _, err := s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceInteraction)); err != nil {
		return err
	}
	if !policy.CanMutate(actor, policy.ResourceInteraction) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// emptyToNil 把空字符串指针归一为 nil
func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
