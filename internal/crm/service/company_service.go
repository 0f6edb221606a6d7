package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/bitfantasy/dealflow/internal/crm/policy"
	"github.com/bitfantasy/dealflow/internal/crm/repository"
)

// CompanyService 公司服务
type CompanyService struct {
	repo *repository.CompanyRepository
}

// NewCompanyService 创建公司服务
func NewCompanyService(repo *repository.CompanyRepository) *CompanyService {
	return &CompanyService{repo: repo}
}

// CreateCompanyRequest 创建公司请求
type CreateCompanyRequest struct {
	Name    string `json:"name" binding:"required"`
	LegalID string `json:"legal_id" binding:"required"`
	Country string `json:"country"`
	Website string `json:"website"`
	Sector  string `json:"sector"`
	Size    string `json:"size"`
	Notes   string `json:"notes"`
}

// UpdateCompanyRequest 更新公司请求
type UpdateCompanyRequest struct {
	Name    *string `json:"name"`
	LegalID *string `json:"legal_id"`
	Country *string `json:"country"`
	Website *string `json:"website"`
	Sector  *string `json:"sector"`
	Size    *string `json:"size"`
	Notes   *string `json:"notes"`
}

// List 分页获取公司列表
func (s *CompanyService) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Company, int64, error) {
	return s.repo.List(ctx, page, pageSize, filters)
}

// Get 获取公司详情
func (s *CompanyService) Get(ctx context.Context, id string) (*entity.Company, error) {
	return s.repo.FindByID(ctx, id)
}

// Create 创建公司
func (s *CompanyService) Create(ctx context.Context, actor policy.Actor, req *CreateCompanyRequest) (*entity.Company, error) {
	if !policy.CanMutate(actor, policy.ResourceCompany) {
		return nil, ErrForbidden
	}

	size := req.Size
	if size == "" {
		size = entity.CompanySizeMedium
	}

	now := time.Now()
	company := &entity.Company{
		ID:        newID(),
		Name:      req.Name,
		LegalID:   req.LegalID,
		Country:   req.Country,
		Website:   req.Website,
		Sector:    req.Sector,
		Size:      size,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := company.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, company); err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	return company, nil
}

// Update 更新公司
func (s *CompanyService) Update(ctx context.Context, actor policy.Actor, id string, req *UpdateCompanyRequest) (*entity.Company, error) {
	if !policy.CanMutate(actor, policy.ResourceCompany) {
		return nil, ErrForbidden
	}

	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.LegalID != nil {
		company.LegalID = *req.LegalID
	}
	if req.Country != nil {
		company.Country = *req.Country
	}
	if req.Website != nil {
		company.Website = *req.Website
	}
	if req.Sector != nil {
		company.Sector = *req.Sector
	}
	if req.Size != nil {
		company.Size = *req.Size
	}
	if req.Notes != nil {
		company.Notes = *req.Notes
	}
	company.UpdatedAt = time.Now()

	if err := company.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, company); err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	return company, nil
}

// Delete 删除公司，联系人与交易级联删除
func (s *CompanyService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if !policy.CanMutate(actor, policy.ResourceCompany) {
		return ErrForbidden
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ContactService 联系人服务
type ContactService struct {
	repo        *repository.ContactRepository
	companyRepo *repository.CompanyRepository
}

// NewContactService 创建联系人服务
func NewContactService(repo *repository.ContactRepository, companyRepo *repository.CompanyRepository) *ContactService {
	return &ContactService{repo: repo, companyRepo: companyRepo}
}

// CreateContactRequest 创建联系人请求
type CreateContactRequest struct {
	CompanyID   string `json:"company_id" binding:"required"`
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
	Seniority   string `json:"seniority"`
	LinkedinURL string `json:"linkedin_url"`
	Notes       string `json:"notes"`
}

// UpdateContactRequest 更新联系人请求
type UpdateContactRequest struct {
	CompanyID   *string `json:"company_id"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Role        *string `json:"role"`
	Seniority   *string `json:"seniority"`
	LinkedinURL *string `json:"linkedin_url"`
	Notes       *string `json:"notes"`
}

// List 分页获取联系人列表
func (s *ContactService) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Contact, int64, error) {
	return s.repo.List(ctx, page, pageSize, filters)
}

// Get 获取联系人详情
func (s *ContactService) Get(ctx context.Context, id string) (*entity.Contact, error) {
	return s.repo.FindByID(ctx, id)
}

// Create 创建联系人
func (s *ContactService) Create(ctx context.Context, actor policy.Actor, req *CreateContactRequest) (*entity.Contact, error) {
	if !policy.CanMutate(actor, policy.ResourceContact) {
		return nil, ErrForbidden
	}

	if _, err := s.companyRepo.FindByID(ctx, req.CompanyID); err != nil {
		if err == repository.ErrNotFound {
			return nil, &entity.ValidationError{Field: "company_id", Message: "company does not exist"}
		}
		return nil, err
	}

	seniority := req.Seniority
	if seniority == "" {
		seniority = entity.SeniorityMid
	}

	now := time.Now()
	contact := &entity.Contact{
		ID:          newID(),
		CompanyID:   req.CompanyID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Role:        req.Role,
		Seniority:   seniority,
		LinkedinURL: req.LinkedinURL,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return contact, nil
}

// Update 更新联系人
func (s *ContactService) Update(ctx context.Context, actor policy.Actor, id string, req *UpdateContactRequest) (*entity.Contact, error) {
	if !policy.CanMutate(actor, policy.ResourceContact) {
		return nil, ErrForbidden
	}

	contact, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CompanyID != nil {
		if _, err := s.companyRepo.FindByID(ctx, *req.CompanyID); err != nil {
			if err == repository.ErrNotFound {
				return nil, &entity.ValidationError{Field: "company_id", Message: "company does not exist"}
			}
			return nil, err
		}
		contact.CompanyID = *req.CompanyID
	}
	if req.FirstName != nil {
		contact.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		contact.LastName = *req.LastName
	}
	if req.Email != nil {
		contact.Email = *req.Email
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}
	if req.Role != nil {
		contact.Role = *req.Role
	}
	if req.Seniority != nil {
		contact.Seniority = *req.Seniority
	}
	if req.LinkedinURL != nil {
		contact.LinkedinURL = *req.LinkedinURL
	}
	if req.Notes != nil {
		contact.Notes = *req.Notes
	}
	contact.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, contact); err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}
	return contact, nil
}

// Delete 删除联系人
func (s *ContactService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if !policy.CanMutate(actor, policy.ResourceContact) {
		return ErrForbidden
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
