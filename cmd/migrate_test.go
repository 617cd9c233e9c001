package cmd

import (
	"context"
	"testing"

	"github.com/anoixa/dicom-portal/database/dbtest"
	"github.com/anoixa/dicom-portal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigration(t *testing.T) {
	ctx := context.Background()
	source := dbtest.Open(t)
	target := dbtest.Open(t)

	patient := &models.User{Email: "p@example.com", Name: "P", Role: models.RolePatient, PasswordHash: "x"}
	require.NoError(t, source.Create(patient).Error)
	for i := 0; i < 3; i++ {
		require.NoError(t, source.Create(&models.Study{
			PatientID: &patient.ID,
			StudyType: "CT",
			StudyDate: "2024-01-15",
			FileName:  "a.dcm",
			FileURL:   "file:///tmp/a.dcm",
		}).Error)
	}

	opts := migrateOptions{fromType: "sqlite", toType: "sqlite", fromDSN: "a", toDSN: "b", batchSize: 2, onConflict: "skip"}
	stats, err := runMigration(ctx, source, target, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.users)
	assert.Equal(t, 3, stats.studies)

	var count int64
	require.NoError(t, target.Model(&models.Study{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	// 再跑一次全部跳过
	stats, err = runMigration(ctx, source, target, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.users)
	assert.Equal(t, 4, stats.skipped)

	opts.onConflict = "error"
	_, err = runMigration(ctx, source, target, opts)
	assert.Error(t, err)
}

func TestRunMigration_Overwrite(t *testing.T) {
	ctx := context.Background()
	source := dbtest.Open(t)
	target := dbtest.Open(t)

	user := &models.User{ID: "u-1", Email: "d@example.com", Name: "New Name", Role: models.RoleDoctor, PasswordHash: "x"}
	require.NoError(t, source.Create(user).Error)
	stale := &models.User{ID: "u-1", Email: "d@example.com", Name: "Old Name", Role: models.RoleDoctor, PasswordHash: "x"}
	require.NoError(t, target.Create(stale).Error)

	opts := migrateOptions{fromType: "sqlite", toType: "postgres", fromDSN: "a", toDSN: "b", batchSize: 10, onConflict: "overwrite"}
	stats, err := runMigration(ctx, source, target, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.overwritten)

	var got models.User
	require.NoError(t, target.First(&got, "id = ?", "u-1").Error)
	assert.Equal(t, "New Name", got.Name)
}

func TestMigrateOptions_Validate(t *testing.T) {
	opts := migrateOptions{fromType: "sqlite", toType: "sqlite", fromDSN: "a.db", toDSN: "a.db", onConflict: "skip"}
	assert.Error(t, opts.validate())

	opts.toDSN = "b.db"
	assert.NoError(t, opts.validate())
	assert.Equal(t, 100, opts.batchSize)

	opts.onConflict = "merge"
	assert.Error(t, opts.validate())
}

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "host=db user=postgres password=**** dbname=portal",
		maskDSN("host=db user=postgres password=secret dbname=portal"))
	assert.Equal(t, "./data/portal.db", maskDSN("./data/portal.db"))
}
