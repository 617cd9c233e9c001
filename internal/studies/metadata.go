package studies

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/anoixa/dicom-portal/database/models"
	"github.com/rs/zerolog/log"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"gorm.io/datatypes"
)

const metadataTimeout = 2 * time.Minute

// Metadata 从 DICOM 头中提取的检查信息
type Metadata struct {
	PatientName      string `json:"patient_name,omitempty"`
	PatientID        string `json:"patient_id,omitempty"`
	StudyInstanceUID string `json:"study_instance_uid,omitempty"`
	Modality         string `json:"modality,omitempty"`
	StudyDate        string `json:"study_date,omitempty"`
	StudyDescription string `json:"study_description,omitempty"`
	Rows             int    `json:"rows,omitempty"`
	Columns          int    `json:"columns,omitempty"`
}

// ParseMetadata 解析 DICOM 头，跳过像素数据
func ParseMetadata(r io.Reader, size int64) (*Metadata, error) {
	ds, err := dicom.Parse(r, size, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("failed to parse dicom header: %w", err)
	}
	return metadataFromDataset(&ds), nil
}

func metadataFromDataset(ds *dicom.Dataset) *Metadata {
	return &Metadata{
		PatientName:      firstString(ds, tag.PatientName),
		PatientID:        firstString(ds, tag.PatientID),
		StudyInstanceUID: firstString(ds, tag.StudyInstanceUID),
		Modality:         firstString(ds, tag.Modality),
		StudyDate:        firstString(ds, tag.StudyDate),
		StudyDescription: firstString(ds, tag.StudyDescription),
		Rows:             firstInt(ds, tag.Rows),
		Columns:          firstInt(ds, tag.Columns),
	}
}

func firstString(ds *dicom.Dataset, t tag.Tag) string {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem.Value == nil || elem.Value.ValueType() != dicom.Strings {
		return ""
	}
	values := dicom.MustGetStrings(elem.Value)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func firstInt(ds *dicom.Dataset, t tag.Tag) int {
	elem, err := ds.FindElementByTag(t)
	if err != nil || elem.Value == nil || elem.Value.ValueType() != dicom.Ints {
		return 0
	}
	values := dicom.MustGetInts(elem.Value)
	if len(values) == 0 {
		return 0
	}
	return values[0]
}

// scheduleMetadata 上传成功后异步解析头信息，失败只记录日志
func (s *Service) scheduleMetadata(study *models.Study) {
	if s.pool == nil || !s.cfg.ExtractMetadata || study.FileSize == nil {
		return
	}

	id, fileURL, size := study.ID, study.FileURL, *study.FileSize
	submitted := s.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), metadataTimeout)
		defer cancel()

		if err := s.extractMetadata(ctx, id, fileURL, size); err != nil {
			log.Warn().Err(err).Str("study_id", id).Msg("dicom metadata extraction failed")
		}
	})
	if !submitted {
		log.Warn().Str("study_id", id).Msg("dicom metadata extraction skipped, worker queue unavailable")
	}
}

func (s *Service) extractMetadata(ctx context.Context, id, fileURL string, size int64) error {
	rc, err := s.blobs.Open(ctx, fileURL)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	meta, err := ParseMetadata(rc, size)
	if err != nil {
		return err
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := s.studies.UpdateMetadata(ctx, id, datatypes.JSON(data)); err != nil {
		return fmt.Errorf("failed to store dicom metadata: %w", err)
	}

	log.Debug().Str("study_id", id).Str("modality", meta.Modality).Msg("dicom metadata stored")
	return nil
}
