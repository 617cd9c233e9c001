package studies

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/dicom-portal/database/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrStudyNotFound 检查记录不存在
var ErrStudyNotFound = errors.New("study not found")

// Filter 列表查询条件，PatientID 为空表示不限
type Filter struct {
	PatientID *string
}

// Store 检查记录存储接口
type Store interface {
	Insert(ctx context.Context, study *models.Study) error
	FindByID(ctx context.Context, id string) (*models.Study, error)
	ListWhere(ctx context.Context, filter Filter) ([]models.Study, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Study, error)
	Delete(ctx context.Context, id string) error
	UpdateMetadata(ctx context.Context, id string, metadata datatypes.JSON) error
}

// Repository 检查记录仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建新的检查记录仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ownerColumns 关联用户只取展示字段
func ownerColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email", "role", "specialty")
}

func (r *Repository) withOwners(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Patient", ownerColumns).
		Preload("Doctor", ownerColumns)
}

// Insert 创建检查记录
func (r *Repository) Insert(ctx context.Context, study *models.Study) error {
	if err := r.db.WithContext(ctx).Omit("Patient", "Doctor").Create(study).Error; err != nil {
		return fmt.Errorf("failed to insert study: %w", err)
	}
	return nil
}

// FindByID 获取检查记录及其患者、医生
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Study, error) {
	var study models.Study
	err := r.withOwners(ctx).Where("id = ?", id).First(&study).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudyNotFound
		}
		return nil, err
	}
	return &study, nil
}

// ListWhere 按条件列出检查记录，最新的在前
func (r *Repository) ListWhere(ctx context.Context, filter Filter) ([]models.Study, error) {
	query := r.withOwners(ctx).Order("created_at DESC")
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}

	var list []models.Study
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Update 部分更新，只写入 fields 中出现的列
func (r *Repository) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Study, error) {
	if len(fields) == 0 {
		return r.FindByID(ctx, id)
	}

	result := r.db.WithContext(ctx).
		Model(&models.Study{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update study: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrStudyNotFound
	}

	return r.FindByID(ctx, id)
}

// Delete 删除检查记录
func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Study{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete study: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStudyNotFound
	}
	return nil
}

// UpdateMetadata 写入解析出的 DICOM 头信息，不刷新 updated_at
func (r *Repository) UpdateMetadata(ctx context.Context, id string, metadata datatypes.JSON) error {
	return r.db.WithContext(ctx).
		Model(&models.Study{}).
		Where("id = ?", id).
		UpdateColumn("dicom_metadata", metadata).Error
}
