package studies

import (
	"fmt"
	"strings"
	"time"

	"github.com/anoixa/dicom-portal/database/models"
	"github.com/anoixa/dicom-portal/internal/access"
	"github.com/anoixa/dicom-portal/internal/apperror"
)

// Transitions 状态迁移表，key 为当前状态
type Transitions map[models.StudyStatus][]models.StudyStatus

// PermissiveTransitions 任意状态之间均可切换，允许 completed 回退到 pending 以便更正
func PermissiveTransitions() Transitions {
	all := models.AllStatuses()
	t := make(Transitions, len(all))
	for _, from := range all {
		t[from] = all
	}
	return t
}

// StrictTransitions 只允许向前推进（以及保持不变）
func StrictTransitions() Transitions {
	return Transitions{
		models.StatusPending:   {models.StatusPending, models.StatusInReview},
		models.StatusInReview:  {models.StatusInReview, models.StatusCompleted},
		models.StatusCompleted: {models.StatusCompleted},
	}
}

// Allowed 判断迁移是否合法
func (t Transitions) Allowed(from, to models.StudyStatus) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Ownership 新建检查的归属字段
type Ownership struct {
	PatientID *string
	DoctorID  *string
}

// AssignOwnership 按上传者角色确定归属
//   - patient: patient_id = 本人，doctor_id 待认领
//   - doctor: doctor_id = 本人；doctorSelfAssign 时 patient_id 也暂记为本人，之后通过改派更正
//   - hospital: 均为空，等待医生或医院分配
func AssignOwnership(actor access.Actor, doctorSelfAssign bool) Ownership {
	id := actor.ID
	switch actor.Role {
	case models.RolePatient:
		return Ownership{PatientID: &id}
	case models.RoleDoctor:
		if doctorSelfAssign {
			patientID := id
			return Ownership{PatientID: &patientID, DoctorID: &id}
		}
		return Ownership{DoctorID: &id}
	default:
		return Ownership{}
	}
}

// Patch 部分更新，nil 字段不修改
// DoctorID / PatientID 为空字符串表示取消分配
type Patch struct {
	Status    *models.StudyStatus
	Diagnosis *string
	DoctorID  *string
	PatientID *string
	Notes     *string
}

// Empty 没有任何字段
func (p Patch) Empty() bool {
	return p.Status == nil && p.Diagnosis == nil && p.DoctorID == nil && p.PatientID == nil && p.Notes == nil
}

// ApplyPatch 校验状态迁移并生成待写入的列，updated_at 总会刷新
func ApplyPatch(study *models.Study, patch Patch, transitions Transitions, now time.Time) (map[string]interface{}, error) {
	fields := map[string]interface{}{
		"updated_at": now,
	}

	if patch.Status != nil {
		to := *patch.Status
		if !to.Valid() {
			return nil, apperror.InvalidInput(fmt.Sprintf("invalid status %q", to))
		}
		if !transitions.Allowed(study.Status, to) {
			return nil, apperror.InvalidInput(fmt.Sprintf("status cannot change from %s to %s", study.Status, to))
		}
		fields["status"] = to
	}

	// 诊断整体替换，不做追加
	if patch.Diagnosis != nil {
		fields["diagnosis"] = *patch.Diagnosis
	}
	if patch.Notes != nil {
		fields["notes"] = *patch.Notes
	}
	if patch.DoctorID != nil {
		fields["doctor_id"] = nullableID(*patch.DoctorID)
	}
	if patch.PatientID != nil {
		fields["patient_id"] = nullableID(*patch.PatientID)
	}

	return fields, nil
}

func nullableID(id string) interface{} {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return id
}
