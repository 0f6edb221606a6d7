package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound   = errors.New("record not found")
	ErrStageInUse = errors.New("stage is referenced by deals")
)

// Repositories 仓库集合
type Repositories struct {
	User        *UserRepository
	Company     *CompanyRepository
	Contact     *ContactRepository
	Stage       *StageRepository
	Deal        *DealRepository
	Task        *TaskRepository
	Interaction *InteractionRepository
	Document    *DocumentRepository
	NDA         *NDARepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Company:     NewCompanyRepository(db),
		Contact:     NewContactRepository(db),
		Stage:       NewStageRepository(db),
		Deal:        NewDealRepository(db),
		Task:        NewTaskRepository(db),
		Interaction: NewInteractionRepository(db),
		Document:    NewDocumentRepository(db),
		NDA:         NewNDARepository(db),
	}
}

// paginate 分页 scope
func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

// orderBy 在白名单内解析排序参数，形如 "field" 或 "-field"
func orderBy(ordering, fallback string, allowed map[string]string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		dir := " ASC"
		field := ordering
		if len(field) > 0 && field[0] == '-' {
			dir = " DESC"
			field = field[1:]
		}
		if col, ok := allowed[field]; ok {
			return db.Order(col + dir)
		}
		return db.Order(fallback)
	}
}

// translateNotFound 把 gorm 的未找到错误翻译为仓库错误
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
