package studies

import (
	"testing"
	"time"

	"github.com/anoixa/dicom-portal/database/models"
	"github.com/anoixa/dicom-portal/internal/access"
	"github.com/anoixa/dicom-portal/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignOwnership(t *testing.T) {
	patient := AssignOwnership(access.Actor{ID: "p1", Role: models.RolePatient}, true)
	require.NotNil(t, patient.PatientID)
	assert.Equal(t, "p1", *patient.PatientID)
	assert.Nil(t, patient.DoctorID)

	doctor := AssignOwnership(access.Actor{ID: "d1", Role: models.RoleDoctor}, true)
	require.NotNil(t, doctor.PatientID)
	require.NotNil(t, doctor.DoctorID)
	assert.Equal(t, "d1", *doctor.PatientID)
	assert.Equal(t, "d1", *doctor.DoctorID)

	noSelf := AssignOwnership(access.Actor{ID: "d1", Role: models.RoleDoctor}, false)
	assert.Nil(t, noSelf.PatientID)
	require.NotNil(t, noSelf.DoctorID)

	hospital := AssignOwnership(access.Actor{ID: "h1", Role: models.RoleHospital}, true)
	assert.Nil(t, hospital.PatientID)
	assert.Nil(t, hospital.DoctorID)
}

func TestTransitions(t *testing.T) {
	permissive := PermissiveTransitions()
	for _, from := range models.AllStatuses() {
		for _, to := range models.AllStatuses() {
			assert.True(t, permissive.Allowed(from, to), "%s -> %s", from, to)
		}
	}

	strict := StrictTransitions()
	assert.True(t, strict.Allowed(models.StatusPending, models.StatusInReview))
	assert.True(t, strict.Allowed(models.StatusInReview, models.StatusCompleted))
	assert.True(t, strict.Allowed(models.StatusCompleted, models.StatusCompleted))
	assert.False(t, strict.Allowed(models.StatusCompleted, models.StatusPending))
	assert.False(t, strict.Allowed(models.StatusPending, models.StatusCompleted))
}

func TestApplyPatch_OnlySuppliedFields(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	study := &models.Study{Status: models.StatusInReview}
	diagnosis := "mild effusion"

	fields, err := ApplyPatch(study, Patch{Diagnosis: &diagnosis}, PermissiveTransitions(), now)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"diagnosis":  "mild effusion",
		"updated_at": now,
	}, fields)
}

func TestApplyPatch_ClearAndStatus(t *testing.T) {
	now := time.Now()
	study := &models.Study{Status: models.StatusCompleted}
	status := models.StatusPending
	empty := ""
	doctor := " d-2 "

	fields, err := ApplyPatch(study, Patch{Status: &status, PatientID: &empty, DoctorID: &doctor}, PermissiveTransitions(), now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, fields["status"])
	assert.Nil(t, fields["patient_id"])
	assert.Contains(t, fields, "patient_id")
	assert.Equal(t, "d-2", fields["doctor_id"])
}

func TestApplyPatch_InvalidStatus(t *testing.T) {
	study := &models.Study{Status: models.StatusCompleted}

	bogus := models.StudyStatus("archived")
	_, err := ApplyPatch(study, Patch{Status: &bogus}, PermissiveTransitions(), time.Now())
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))

	back := models.StatusPending
	_, err = ApplyPatch(study, Patch{Status: &back}, StrictTransitions(), time.Now())
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
}

func TestPatch_Empty(t *testing.T) {
	assert.True(t, Patch{}.Empty())
	notes := ""
	assert.False(t, Patch{Notes: &notes}.Empty())
}
