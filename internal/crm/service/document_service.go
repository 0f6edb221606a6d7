package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/bitfantasy/dealflow/internal/crm/policy"
	"github.com/bitfantasy/dealflow/internal/crm/repository"
	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
)

// MaxUploadSize 单个文件上传上限
const MaxUploadSize = 10 << 20

// sniffLimit MIME 嗅探读取的头部字节数
const sniffLimit = 1024

// allowedExtensions 允许上传的扩展名
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".ppt":  true,
	".pptx": true,
	".txt":  true,
}

// DocumentService 文档服务
type DocumentService struct {
	repo     *repository.DocumentRepository
	dealRepo *repository.DealRepository
	minio    *minio.Client
	bucket   string
}

// NewDocumentService 创建文档服务
func NewDocumentService(repo *repository.DocumentRepository, dealRepo *repository.DealRepository, minioClient *minio.Client, bucket string) *DocumentService {
	return &DocumentService{repo: repo, dealRepo: dealRepo, minio: minioClient, bucket: bucket}
}

// FileMeta 服务端从文件流推导的元数据
type FileMeta struct {
	Filename    string
	Size        int64
	ContentType string
	Data        []byte
}

// DeriveFileMeta 读入文件流并推导大小与MIME类型。
// 大小以实际读到的字节数为准，类型从头部嗅探，嗅探不出时兜底。
func DeriveFileMeta(filename string, r io.Reader) (*FileMeta, error) {
	ext := strings.ToLower(path.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, &entity.ValidationError{Field: "file", Message: fmt.Sprintf("file extension %q is not allowed", ext)}
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, &entity.ValidationError{Field: "file", Message: "file exceeds the 10MB size limit"}
	}

	head := data
	if len(head) > sniffLimit {
		head = head[:sniffLimit]
	}
	contentType := entity.FallbackContentType
	if len(head) > 0 {
		if mt := mimetype.Detect(head); mt != nil {
			contentType = mt.String()
		}
	}

	return &FileMeta{
		Filename:    path.Base(filename),
		Size:        int64(len(data)),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// List 在可见范围内分页获取文档
func (s *DocumentService) List(ctx context.Context, actor policy.Actor, page, pageSize int, filters map[string]interface{}) ([]entity.Document, int64, error) {
	docs, total, err := s.repo.List(ctx, page, pageSize, filters, policy.Scope(actor, policy.ResourceDocument))
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	for i := range docs {
		docs[i].Decorate()
	}
	return docs, total, nil
}

// Get 在可见范围内获取文档详情
func (s *DocumentService) Get(ctx context.Context, actor policy.Actor, id string) (*entity.Document, error) {
	doc, err := s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceDocument))
	if err != nil {
		return nil, err
	}
	doc.Decorate()
	return doc, nil
}

// Upload 上传文件，元数据由服务端推导，客户端给的大小与类型一律忽略
func (s *DocumentService) Upload(ctx context.Context, actor policy.Actor, dealID *string, filename string, r io.Reader) (*entity.Document, error) {
	if !policy.CanMutate(actor, policy.ResourceDocument) {
		return nil, ErrForbidden
	}

	dealID = emptyToNil(dealID)
	if dealID != nil {
		if _, err := s.dealRepo.FindByID(ctx, *dealID, policy.Scope(actor, policy.ResourceDeal)); err != nil {
			if err == repository.ErrNotFound {
				return nil, &entity.ValidationError{Field: "deal_id", Message: "deal does not exist"}
			}
			return nil, err
		}
	}

	meta, err := DeriveFileMeta(filename, r)
	if err != nil {
		return nil, err
	}

	doc := &entity.Document{
		ID:          newID(),
		DealID:      dealID,
		Filename:    meta.Filename,
		ObjectKey:   fmt.Sprintf("documents/%s/%s", time.Now().Format("2006/01"), newID()+strings.ToLower(path.Ext(meta.Filename))),
		Size:        meta.Size,
		ContentType: meta.ContentType,
		UploadedBy:  actor.ID,
		UploadedAt:  time.Now(),
	}

	if s.minio != nil {
		_, err = s.minio.PutObject(ctx, s.bucket, doc.ObjectKey,
			bytes.NewReader(meta.Data), meta.Size,
			minio.PutObjectOptions{ContentType: meta.ContentType})
		if err != nil {
			return nil, fmt.Errorf("store object: %w", err)
		}
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return s.Get(ctx, actor, doc.ID)
}

// Download 获取文档内容流
func (s *DocumentService) Download(ctx context.Context, actor policy.Actor, id string) (*entity.Document, io.ReadCloser, error) {
	doc, err := s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceDocument))
	if err != nil {
		return nil, nil, err
	}
	if s.minio == nil {
		return nil, nil, fmt.Errorf("object storage is not configured")
	}
	obj, err := s.minio.GetObject(ctx, s.bucket, doc.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("get object: %w", err)
	}
	doc.Decorate()
	return doc, obj, nil
}

// Delete 删除文档及其存储对象，引用它的 NDA 文件字段会被置空
func (s *DocumentService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	doc, err := s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceDocument))
	if err != nil {
		return err
	}
	if !policy.CanMutateDocument(actor, doc) {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if s.minio != nil {
		// 对象清理失败不回滚元数据删除
		_ = s.minio.RemoveObject(ctx, s.bucket, doc.ObjectKey, minio.RemoveObjectOptions{})
	}
	return nil
}

// NDAService 保密协议服务
type NDAService struct {
	repo     *repository.NDARepository
	dealRepo *repository.DealRepository
	docRepo  *repository.DocumentRepository
}

// NewNDAService 创建保密协议服务
func NewNDAService(repo *repository.NDARepository, dealRepo *repository.DealRepository, docRepo *repository.DocumentRepository) *NDAService {
	return &NDAService{repo: repo, dealRepo: dealRepo, docRepo: docRepo}
}

// CreateNDARequest 创建保密协议请求
type CreateNDARequest struct {
	DealID       string     `json:"deal_id" binding:"required"`
	Counterparty string     `json:"counterparty" binding:"required"`
	Status       string     `json:"status"`
	SignedAt     *time.Time `json:"signed_at"`
	FileID       *string    `json:"file_id"`
	Notes        string     `json:"notes"`
}

// UpdateNDARequest 更新保密协议请求
type UpdateNDARequest struct {
	Counterparty *string    `json:"counterparty"`
	Status       *string    `json:"status"`
	SignedAt     *time.Time `json:"signed_at"`
	FileID       *string    `json:"file_id"`
	Notes        *string    `json:"notes"`
}

// List 在可见范围内分页获取保密协议
func (s *NDAService) List(ctx context.Context, actor policy.Actor, page, pageSize int, filters map[string]interface{}) ([]entity.NDA, int64, error) {
	ndas, total, err := s.repo.List(ctx, page, pageSize, filters, policy.Scope(actor, policy.ResourceNDA))
	if err != nil {
		return nil, 0, fmt.Errorf("list ndas: %w", err)
	}
	return ndas, total, nil
}

// Get 在可见范围内获取保密协议详情
func (s *NDAService) Get(ctx context.Context, actor policy.Actor, id string) (*entity.NDA, error) {
	return s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceNDA))
}

// resolveFile 文件ID存在时校验对应文档存在
func (s *NDAService) resolveFile(ctx context.Context, actor policy.Actor, fileID *string) error {
	if fileID == nil {
		return nil
	}
	if _, err := s.docRepo.FindByID(ctx, *fileID, policy.Scope(actor, policy.ResourceDocument)); err != nil {
		if err == repository.ErrNotFound {
			return &entity.ValidationError{Field: "file_id", Message: "document does not exist"}
		}
		return err
	}
	return nil
}

// Create 创建保密协议
func (s *NDAService) Create(ctx context.Context, actor policy.Actor, req *CreateNDARequest) (*entity.NDA, error) {
	if !policy.CanMutate(actor, policy.ResourceNDA) {
		return nil, ErrForbidden
	}

	if _, err := s.dealRepo.FindByID(ctx, req.DealID, policy.Scope(actor, policy.ResourceDeal)); err != nil {
		if err == repository.ErrNotFound {
			return nil, &entity.ValidationError{Field: "deal_id", Message: "deal does not exist"}
		}
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = entity.NDAStatusDraft
	}

	fileID := emptyToNil(req.FileID)
	if err := s.resolveFile(ctx, actor, fileID); err != nil {
		return nil, err
	}

	now := time.Now()
	nda := &entity.NDA{
		ID:           newID(),
		DealID:       req.DealID,
		Counterparty: req.Counterparty,
		Status:       status,
		SignedAt:     req.SignedAt,
		FileID:       fileID,
		Notes:        req.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := nda.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, nda); err != nil {
		return nil, fmt.Errorf("create nda: %w", err)
	}
	return s.Get(ctx, actor, nda.ID)
}

// Update 更新保密协议，保存前无条件重新校验
func (s *NDAService) Update(ctx context.Context, actor policy.Actor, id string, req *UpdateNDARequest) (*entity.NDA, error) {
	nda, err := s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceNDA))
	if err != nil {
		return nil, err
	}
	if !policy.CanMutate(actor, policy.ResourceNDA) {
		return nil, ErrForbidden
	}

	if req.Counterparty != nil {
		nda.Counterparty = *req.Counterparty
	}
	if req.Status != nil {
		nda.Status = *req.Status
	}
	if req.SignedAt != nil {
		nda.SignedAt = req.SignedAt
	}
	if req.FileID != nil {
		fileID := emptyToNil(req.FileID)
		if err := s.resolveFile(ctx, actor, fileID); err != nil {
			return nil, err
		}
		nda.FileID = fileID
	}
	if req.Notes != nil {
		nda.Notes = *req.Notes
	}

	if err := nda.Validate(); err != nil {
		return nil, err
	}
	nda.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, nda); err != nil {
		return nil, fmt.Errorf("update nda: %w", err)
	}
	return s.Get(ctx, actor, id)
}

// Delete 删除保密协议
func (s *NDAService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if _, err := s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceNDA)); err != nil {
		return err
	}
	if !policy.CanMutate(actor, policy.ResourceNDA) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
