package domain

import (
	"testing"
	"time"
)

func TestRole_Can(t *testing.T) {
	cases := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleAdmin, CapManagePatients, true},
		{RoleAdmin, CapPrescribe, true},
		{RoleAdmin, CapSetAppointmentStatus, true},

		{RoleDoctor, CapManageAvailability, true},
		{RoleDoctor, CapWriteClinicalRecords, true},
		{RoleDoctor, CapPrescribe, true},
		{RoleDoctor, CapManagePatients, false},
		{RoleDoctor, CapManageDoctors, false},

		{RoleNurse, CapManagePatients, true},
		{RoleNurse, CapWriteClinicalRecords, true},
		{RoleNurse, CapPrescribe, false},
		{RoleNurse, CapSetAppointmentStatus, false},

		{RoleReceptionist, CapBookAppointments, true},
		{RoleReceptionist, CapSetAppointmentStatus, true},
		{RoleReceptionist, CapWriteClinicalRecords, false},
		{RoleReceptionist, CapRunRiskAssessment, false},

		{RolePatient, CapBookAppointments, true},
		{RolePatient, CapCancelOwnAppointment, true},
		{RolePatient, CapSetAppointmentStatus, false},
		{RolePatient, CapManagePatients, false},

		{Role("intruder"), CapBookAppointments, false},
	}

	for _, tc := range cases {
		if got := tc.role.Can(tc.cap); got != tc.want {
			t.Errorf("%s.Can(%s) = %v, want %v", tc.role, tc.cap, got, tc.want)
		}
	}
}

func TestRole_IsValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist, RolePatient} {
		if !r.IsValid() {
			t.Errorf("%s reported invalid", r)
		}
	}
	if Role("superuser").IsValid() {
		t.Error("unknown role reported valid")
	}
}

func TestUser_IsLocked(t *testing.T) {
	u := &User{}
	if u.IsLocked() {
		t.Error("user with no lock reported locked")
	}

	past := time.Now().Add(-time.Minute)
	u.LockedUntil = &past
	if u.IsLocked() {
		t.Error("expired lock still reported locked")
	}

	future := time.Now().Add(10 * time.Minute)
	u.LockedUntil = &future
	if !u.IsLocked() {
		t.Error("active lock not reported")
	}
}
