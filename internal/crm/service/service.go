package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/dealflow/internal/config"
	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/bitfantasy/dealflow/internal/crm/policy"
	"github.com/bitfantasy/dealflow/internal/crm/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Services 服务集合
type Services struct {
	Auth        *AuthService
	User        *UserService
	Company     *CompanyService
	Contact     *ContactService
	Stage       *StageService
	Deal        *DealService
	Task        *TaskService
	Interaction *InteractionService
	Document    *DocumentService
	NDA         *NDAService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config) *Services {
	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			// 无MinIO时降级运行，只存元数据
			minioClient = nil
		}
	}

	dealSvc := NewDealService(repos.Deal, repos.Stage, repos.Company, repos.User)

	return &Services{
		Auth:        NewAuthService(repos.User, rdb, cfg),
		User:        NewUserService(repos.User),
		Company:     NewCompanyService(repos.Company),
		Contact:     NewContactService(repos.Contact, repos.Company),
		Stage:       NewStageService(repos.Stage),
		Deal:        dealSvc,
		Task:        NewTaskService(repos.Task, repos.Deal, repos.User),
		Interaction: NewInteractionService(repos.Interaction, repos.Contact),
		Document:    NewDocumentService(repos.Document, repos.Deal, minioClient, cfg.MinIO.Bucket),
		NDA:         NewNDAService(repos.NDA, repos.Deal, repos.Document),
	}
}

// newID 生成实体主键
func newID() string {
	return uuid.New().String()
}

// UserService 用户服务
type UserService struct {
	repo *repository.UserRepository
}

// NewUserService 创建用户服务
func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Role      string `json:"role"`
	Phone     string `json:"phone"`
}

// UpdateUserRequest 更新用户请求。角色是业务分类，创建后不可改。
type UpdateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

// List 分页获取用户列表
func (s *UserService) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.User, int64, error) {
	return s.repo.List(ctx, page, pageSize, filters)
}

// Get 获取用户详情
func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.repo.FindByID(ctx, id)
}

// Create 创建用户，仅管理员可用
func (s *UserService) Create(ctx context.Context, actor policy.Actor, req *CreateUserRequest) (*entity.User, error) {
	if !policy.CanMutate(actor, policy.ResourceUser) {
		return nil, ErrForbidden
	}

	role := req.Role
	if role == "" {
		role = entity.RoleAnalyst
	}
	if !entity.ValidRole(role) {
		return nil, &entity.ValidationError{Field: "role", Message: "role must be admin, associate or analyst"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:           newID(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		Phone:        req.Phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Update 更新用户，仅管理员可用
func (s *UserService) Update(ctx context.Context, actor policy.Actor, id string, req *UpdateUserRequest) (*entity.User, error) {
	if !policy.CanMutate(actor, policy.ResourceUser) {
		return nil, ErrForbidden
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	user.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete 删除用户，仅管理员可用
func (s *UserService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if !policy.CanMutate(actor, policy.ResourceUser) {
		return ErrForbidden
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
