package studies

import (
	"github.com/anoixa/dicom-portal/database/models"
	authsvc "github.com/anoixa/dicom-portal/internal/auth"
	studysvc "github.com/anoixa/dicom-portal/internal/studies"
)

// Handler 检查记录处理器
type Handler struct {
	studies  *studysvc.Service
	accounts *authsvc.AccountService
	maxBytes int64
}

// NewHandler 创建检查处理器，maxBytes 为单文件上限
func NewHandler(studies *studysvc.Service, accounts *authsvc.AccountService, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = studysvc.DefaultMaxUploadBytes
	}
	return &Handler{
		studies:  studies,
		accounts: accounts,
		maxBytes: maxBytes,
	}
}

// updateStudyRequest 未出现的字段不修改；doctor_id / patient_id 传空字符串取消分配
type updateStudyRequest struct {
	Status    *string `json:"status" binding:"omitempty,oneof=pending in-review completed"`
	Diagnosis *string `json:"diagnosis" binding:"omitempty,max=20000"`
	DoctorID  *string `json:"doctor_id" binding:"omitempty,max=36"`
	PatientID *string `json:"patient_id" binding:"omitempty,max=36"`
	Notes     *string `json:"notes" binding:"omitempty,max=20000"`
}

func (r updateStudyRequest) patch() studysvc.Patch {
	p := studysvc.Patch{
		Diagnosis: r.Diagnosis,
		DoctorID:  r.DoctorID,
		PatientID: r.PatientID,
		Notes:     r.Notes,
	}
	if r.Status != nil {
		status := models.StudyStatus(*r.Status)
		p.Status = &status
	}
	return p
}

type listResponse struct {
	Count   int                `json:"count"`
	Studies []models.Study     `json:"studies"`
	User    models.UserSummary `json:"user"`
}
