package studies

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/anoixa/dicom-portal/database/models"
	"github.com/anoixa/dicom-portal/database/repo/accounts"
	studyrepo "github.com/anoixa/dicom-portal/database/repo/studies"
	"github.com/anoixa/dicom-portal/internal/access"
	"github.com/anoixa/dicom-portal/internal/apperror"
	"github.com/anoixa/dicom-portal/internal/worker"
	"github.com/anoixa/dicom-portal/utils"
	"github.com/anoixa/dicom-portal/utils/format"
	"github.com/anoixa/dicom-portal/utils/generator"
	"github.com/anoixa/dicom-portal/utils/validator"
	"github.com/rs/zerolog/log"
)

// DefaultMaxUploadBytes 单个 DICOM 文件上限
const DefaultMaxUploadBytes int64 = 100 << 20

// BlobStore 以 URL 引用的文件存储
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error)
	Delete(ctx context.Context, fileURL string) error
	Open(ctx context.Context, fileURL string) (io.ReadCloser, error)
}

// Config 检查服务配置
type Config struct {
	MaxUploadBytes   int64
	DoctorSelfAssign bool
	Transitions      Transitions
	ExtractMetadata  bool
}

// Upload 上传请求，Size 为客户端声明的文件大小
type Upload struct {
	FileName         string
	Size             int64
	Content          io.Reader
	StudyType        string
	StudyDescription *string
	Notes            *string
}

// Service 检查记录服务
type Service struct {
	studies  studyrepo.Store
	accounts accounts.Store
	blobs    BlobStore
	paths    *generator.PathGenerator
	pool     *worker.Pool
	cfg      Config
	now      func() time.Time
}

// NewService 创建检查服务，pool 为 nil 时不解析 DICOM 头
func NewService(studies studyrepo.Store, accountStore accounts.Store, blobs BlobStore, pool *worker.Pool, cfg Config) *Service {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.Transitions == nil {
		cfg.Transitions = PermissiveTransitions()
	}
	return &Service{
		studies:  studies,
		accounts: accountStore,
		blobs:    blobs,
		paths:    generator.NewPathGenerator(),
		pool:     pool,
		cfg:      cfg,
		now:      time.Now,
	}
}

// List 按角色过滤的检查列表
func (s *Service) List(ctx context.Context, actor access.Actor) ([]models.Study, error) {
	filter := access.ListFilter(actor)

	var repoFilter studyrepo.Filter
	switch filter.Scope {
	case access.ScopeAll:
	case access.ScopeOwnPatient:
		patientID := filter.PatientID
		repoFilter.PatientID = &patientID
	default:
		return nil, apperror.Forbidden("not allowed to list studies")
	}

	list, err := s.studies.ListWhere(ctx, repoFilter)
	if err != nil {
		return nil, apperror.Upstream("failed to list studies", err)
	}
	return list, nil
}

// Get 获取单个检查
func (s *Service) Get(ctx context.Context, actor access.Actor, id string) (*models.Study, error) {
	study, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanRead(actor, study) {
		return nil, apperror.Forbidden("not allowed to view this study")
	}
	return study, nil
}

// OpenFile 打开检查对应的 DICOM 文件，调用方负责关闭
func (s *Service) OpenFile(ctx context.Context, actor access.Actor, id string) (*models.Study, io.ReadCloser, error) {
	study, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.blobs.Open(ctx, study.FileURL)
	if err != nil {
		return nil, nil, apperror.Upstream("failed to open study file", err)
	}
	return study, rc, nil
}

// ValidateUpload 检查文件名与大小，写入存储前调用
func (s *Service) ValidateUpload(in Upload) error {
	if strings.TrimSpace(in.StudyType) == "" {
		return apperror.InvalidInput("study_type is required")
	}
	if strings.TrimSpace(in.FileName) == "" {
		return apperror.InvalidInput("file is required")
	}
	if !validator.IsDICOMFileName(in.FileName) {
		return apperror.InvalidInput(fmt.Sprintf("only %s files are accepted", strings.Join(validator.AllowedExtensions(), ", ")))
	}
	if in.Size <= 0 {
		return apperror.InvalidInput("file is empty")
	}
	if in.Size > s.cfg.MaxUploadBytes {
		return apperror.InvalidInput(fmt.Sprintf("file exceeds the %s limit", format.Size(s.cfg.MaxUploadBytes)))
	}
	return nil
}

// Create 上传 DICOM 文件并创建检查记录
func (s *Service) Create(ctx context.Context, actor access.Actor, in Upload) (*models.Study, error) {
	if !access.CanCreate(actor) {
		return nil, apperror.Forbidden("not allowed to upload studies")
	}
	if err := s.ValidateUpload(in); err != nil {
		return nil, err
	}

	if _, err := s.accounts.FindByID(ctx, actor.ID); err != nil {
		if errors.Is(err, accounts.ErrUserNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Upstream("failed to load user", err)
	}

	key, err := s.paths.DICOMObjectKey(in.FileName)
	if err != nil {
		return nil, apperror.Upstream("failed to generate storage path", err)
	}

	fileURL, err := s.blobs.Put(ctx, key, in.Content)
	if err != nil {
		return nil, apperror.Upstream("failed to upload file", err)
	}

	now := s.now()
	owners := AssignOwnership(actor, s.cfg.DoctorSelfAssign)
	size := in.Size
	study := &models.Study{
		PatientID:        owners.PatientID,
		DoctorID:         owners.DoctorID,
		StudyType:        strings.TrimSpace(in.StudyType),
		StudyDescription: in.StudyDescription,
		StudyDate:        now.Format(models.StudyDateLayout),
		FileName:         in.FileName,
		FileURL:          fileURL,
		FileSize:         &size,
		Status:           models.StatusPending,
		Notes:            in.Notes,
	}

	if err := s.studies.Insert(ctx, study); err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), fileURL); delErr != nil {
			log.Warn().Err(delErr).Str("file_url", fileURL).Msg("failed to remove uploaded file after insert failure")
		}
		return nil, apperror.Upstream("failed to save study", err)
	}

	log.Info().
		Str("study_id", study.ID).
		Str("actor_id", actor.ID).
		Str("role", string(actor.Role)).
		Str("file", utils.SanitizeLogValue(in.FileName)).
		Str("size", format.Size(size)).
		Msg("study uploaded")

	s.scheduleMetadata(study)
	return study, nil
}

// Update 部分更新状态、诊断、备注或改派
func (s *Service) Update(ctx context.Context, actor access.Actor, id string, patch Patch) (*models.Study, error) {
	study, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !access.CanUpdateClinical(actor, study) {
		return nil, apperror.Forbidden("only doctors and hospitals can update studies")
	}
	if patch.DoctorID != nil && !access.CanReassignDoctor(actor, study) {
		return nil, apperror.Forbidden("not allowed to reassign doctor")
	}
	if patch.PatientID != nil && !access.CanReassignPatient(actor, study) {
		return nil, apperror.Forbidden("not allowed to reassign patient")
	}
	if patch.Empty() {
		return nil, apperror.InvalidInput("no fields to update")
	}

	if err := s.checkAssignee(ctx, patch.DoctorID, models.RoleDoctor); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, patch.PatientID, models.RolePatient); err != nil {
		return nil, err
	}

	fields, err := ApplyPatch(study, patch, s.cfg.Transitions, s.now())
	if err != nil {
		return nil, err
	}

	updated, err := s.studies.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, studyrepo.ErrStudyNotFound) {
			return nil, apperror.NotFound("study not found")
		}
		return nil, apperror.Upstream("failed to update study", err)
	}
	return updated, nil
}

// checkAssignee 改派目标必须存在且角色匹配，空字符串表示取消分配
func (s *Service) checkAssignee(ctx context.Context, id *string, role models.Role) error {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}

	user, err := s.accounts.FindByID(ctx, strings.TrimSpace(*id))
	if err != nil {
		if errors.Is(err, accounts.ErrUserNotFound) {
			return apperror.NotFound(fmt.Sprintf("%s not found", role))
		}
		return apperror.Upstream("failed to load user", err)
	}
	if user.Role != role {
		return apperror.InvalidInput(fmt.Sprintf("user %s is not a %s", user.ID, role))
	}
	return nil
}

// Delete 删除检查；文件删除失败只记警告，记录删除失败则整体失败
func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	study, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanDelete(actor, study) {
		return apperror.Forbidden("not allowed to delete this study")
	}

	if err := s.blobs.Delete(ctx, study.FileURL); err != nil {
		log.Warn().
			Err(err).
			Str("study_id", study.ID).
			Str("file_url", study.FileURL).
			Msg("failed to delete study file, removing record anyway")
	}

	if err := s.studies.Delete(ctx, id); err != nil {
		if errors.Is(err, studyrepo.ErrStudyNotFound) {
			return apperror.NotFound("study not found")
		}
		return apperror.Upstream("failed to delete study", err)
	}

	log.Info().Str("study_id", id).Str("actor_id", actor.ID).Msg("study deleted")
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*models.Study, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.InvalidInput("study id is required")
	}
	study, err := s.studies.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, studyrepo.ErrStudyNotFound) {
			return nil, apperror.NotFound("study not found")
		}
		return nil, apperror.Upstream("failed to load study", err)
	}
	return study, nil
}
