// Package access 基于角色的检查记录访问控制
//
// 所有判定都是纯函数，身份缺失或角色未知时一律拒绝。
package access

import (
	"github.com/anoixa/dicom-portal/database/models"
)

// Actor 已认证的请求方
type Actor struct {
	ID   string
	Role models.Role
}

// Valid 身份与角色均有效
func (a Actor) Valid() bool {
	return a.ID != "" && a.Role.Valid()
}

// Scope 列表可见范围
type Scope int

const (
	// ScopeNone 不可见任何记录
	ScopeNone Scope = iota
	// ScopeOwnPatient 仅本人作为患者的记录
	ScopeOwnPatient
	// ScopeAll 全部记录
	ScopeAll
)

// Filter 列表过滤条件
type Filter struct {
	Scope     Scope
	PatientID string
}

// Matches 判断记录是否在过滤范围内
func (f Filter) Matches(study *models.Study) bool {
	switch f.Scope {
	case ScopeAll:
		return study != nil
	case ScopeOwnPatient:
		return study.OwnedByPatient(f.PatientID)
	default:
		return false
	}
}

// ListFilter 患者只看自己的记录，医生与医院看全部（便于认领未分配的检查）
func ListFilter(actor Actor) Filter {
	if !actor.Valid() {
		return Filter{Scope: ScopeNone}
	}
	switch actor.Role {
	case models.RolePatient:
		return Filter{Scope: ScopeOwnPatient, PatientID: actor.ID}
	case models.RoleDoctor, models.RoleHospital:
		return Filter{Scope: ScopeAll}
	}
	return Filter{Scope: ScopeNone}
}

// CanCreate 任何已认证角色都可上传
func CanCreate(actor Actor) bool {
	return actor.Valid()
}

// CanRead 与列表过滤条件一致
func CanRead(actor Actor, study *models.Study) bool {
	return ListFilter(actor).Matches(study)
}

// CanUpdateClinical 状态、诊断、备注仅医生与医院可改
func CanUpdateClinical(actor Actor, study *models.Study) bool {
	return actor.Valid() && study != nil && actor.Role.Clinical()
}

// CanReassignDoctor 与临床字段同一门槛
func CanReassignDoctor(actor Actor, study *models.Study) bool {
	return CanUpdateClinical(actor, study)
}

// CanReassignPatient 与临床字段同一门槛
func CanReassignPatient(actor Actor, study *models.Study) bool {
	return CanUpdateClinical(actor, study)
}

// CanDelete 医生、医院，或记录所属患者本人
func CanDelete(actor Actor, study *models.Study) bool {
	if !actor.Valid() || study == nil {
		return false
	}
	if actor.Role.Clinical() {
		return true
	}
	return actor.Role == models.RolePatient && study.OwnedByPatient(actor.ID)
}
