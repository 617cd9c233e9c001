package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Valid(t *testing.T) {
	assert.True(t, RolePatient.Valid())
	assert.True(t, RoleDoctor.Valid())
	assert.True(t, RoleHospital.Valid())
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").Valid())

	assert.False(t, RolePatient.Clinical())
	assert.True(t, RoleDoctor.Clinical())
	assert.True(t, RoleHospital.Clinical())
}

func TestStudyStatus_Valid(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, StudyStatus("archived").Valid())
}

func TestStudy_OwnedByPatient(t *testing.T) {
	patient := "p-1"
	study := &Study{PatientID: &patient}

	assert.True(t, study.OwnedByPatient("p-1"))
	assert.False(t, study.OwnedByPatient("p-2"))
	assert.False(t, study.OwnedByPatient(""))
	assert.False(t, (&Study{}).OwnedByPatient("p-1"))

	var nilStudy *Study
	assert.False(t, nilStudy.OwnedByPatient("p-1"))
}
