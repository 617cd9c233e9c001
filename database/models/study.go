package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StudyStatus 检查状态
type StudyStatus string

const (
	StatusPending   StudyStatus = "pending"
	StatusInReview  StudyStatus = "in-review"
	StatusCompleted StudyStatus = "completed"
)

// Valid 是否为已知状态
func (s StudyStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusCompleted:
		return true
	}
	return false
}

// AllStatuses 返回全部状态
func AllStatuses() []StudyStatus {
	return []StudyStatus{StatusPending, StatusInReview, StatusCompleted}
}

// StudyDateLayout study_date 存储格式
const StudyDateLayout = "2006-01-02"

type Study struct {
	ID               string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PatientID        *string        `gorm:"type:varchar(36);index" json:"patient_id"`
	DoctorID         *string        `gorm:"type:varchar(36);index" json:"doctor_id"`
	StudyType        string         `gorm:"size:64;not null" json:"study_type"`
	StudyDescription *string        `gorm:"type:text" json:"study_description,omitempty"`
	StudyDate        string         `gorm:"size:10;not null" json:"study_date"`
	FileName         string         `gorm:"size:255;not null" json:"file_name"`
	FileURL          string         `gorm:"size:1024;not null" json:"file_url"`
	FileSize         *int64         `json:"file_size,omitempty"`
	Diagnosis        *string        `gorm:"type:text" json:"diagnosis,omitempty"`
	Status           StudyStatus    `gorm:"size:16;not null;default:pending;index" json:"status"`
	Notes            *string        `gorm:"type:text" json:"notes,omitempty"`
	DicomMetadata    datatypes.JSON `json:"dicom_metadata,omitempty"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	Patient *User `gorm:"foreignKey:PatientID;references:ID;constraint:OnDelete:SET NULL" json:"patient,omitempty"`
	Doctor  *User `gorm:"foreignKey:DoctorID;references:ID;constraint:OnDelete:SET NULL" json:"doctor,omitempty"`
}

// BeforeCreate 自动生成 UUID 与初始状态
func (s *Study) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = StatusPending
	}
	return nil
}

// OwnedByPatient 是否属于指定患者
func (s *Study) OwnedByPatient(userID string) bool {
	return s != nil && userID != "" && s.PatientID != nil && *s.PatientID == userID
}
