package studies

import (
	"context"
	"strings"
	"testing"

	"github.com/anoixa/dicom-portal/database/dbtest"
	"github.com/anoixa/dicom-portal/database/models"
	"github.com/anoixa/dicom-portal/database/repo/accounts"
	studyrepo "github.com/anoixa/dicom-portal/database/repo/studies"
	"github.com/anoixa/dicom-portal/internal/access"
	"github.com/anoixa/dicom-portal/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

func mustElement(t *testing.T, tg tag.Tag, data interface{}) *dicom.Element {
	t.Helper()
	elem, err := dicom.NewElement(tg, data)
	require.NoError(t, err)
	return elem
}

func TestMetadataFromDataset(t *testing.T) {
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.PatientName, []string{"Doe^Jane"}),
		mustElement(t, tag.PatientID, []string{"MRN-001 "}),
		mustElement(t, tag.StudyInstanceUID, []string{"1.2.840.113619.2.55"}),
		mustElement(t, tag.Modality, []string{"CT"}),
		mustElement(t, tag.StudyDate, []string{"20240115"}),
		mustElement(t, tag.Rows, []int{512}),
		mustElement(t, tag.Columns, []int{256}),
	}}

	meta := metadataFromDataset(&ds)
	assert.Equal(t, "Doe^Jane", meta.PatientName)
	assert.Equal(t, "MRN-001", meta.PatientID)
	assert.Equal(t, "CT", meta.Modality)
	assert.Equal(t, "20240115", meta.StudyDate)
	assert.Empty(t, meta.StudyDescription)
	assert.Equal(t, 512, meta.Rows)
	assert.Equal(t, 256, meta.Columns)
}

func TestParseMetadata_Garbage(t *testing.T) {
	content := "definitely not a dicom file"
	_, err := ParseMetadata(strings.NewReader(content), int64(len(content)))
	assert.Error(t, err)
}

func TestScheduleMetadata_FailureLeavesStudyUntouched(t *testing.T) {
	db := dbtest.Open(t)
	user := &models.User{Email: "p@example.com", Name: "P", Role: models.RolePatient, PasswordHash: "h"}
	require.NoError(t, db.Create(user).Error)

	pool := worker.NewPool(1, 4)
	blobs := newFakeBlobs()
	repo := studyrepo.NewRepository(db)
	svc := NewService(repo, accounts.NewRepository(db), blobs, pool, Config{ExtractMetadata: true})

	study, err := svc.Create(context.Background(), access.Actor{ID: user.ID, Role: models.RolePatient}, Upload{
		FileName:  "broken.dcm",
		Size:      7,
		Content:   strings.NewReader("garbage"),
		StudyType: "MR",
	})
	require.NoError(t, err)

	pool.Stop()
	stats := pool.GetStats()
	assert.Equal(t, uint64(1), stats.Executed)
	assert.Zero(t, stats.Failed)

	got, err := repo.FindByID(context.Background(), study.ID)
	require.NoError(t, err)
	assert.Empty(t, got.DicomMetadata)
	assert.Equal(t, models.StatusPending, got.Status)
}
