package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicore/clinicore/internal/domain"
	"github.com/clinicore/clinicore/internal/domain/patient"
)

func newPatientFixture(t *testing.T) (*PatientService, *mockPatientRepo) {
	t.Helper()
	repo := newMockPatientRepo()
	audit := NewAuditService(&mockAuditRepo{}, nil, zap.NewNop())
	t.Cleanup(audit.Shutdown)
	return NewPatientService(repo, audit, nil, zap.NewNop()), repo
}

func nurseCaller() Caller {
	return Caller{UserID: uuid.New(), Role: domain.RoleNurse}
}

func registrationCommand() *patient.CreatePatientCommand {
	return &patient.CreatePatientCommand{
		FirstName:   "Ana",
		LastName:    "Reyes",
		DateOfBirth: time.Date(1984, 6, 12, 0, 0, 0, 0, time.UTC),
		Gender:      patient.GenderFemale,
		BloodType:   patient.BloodTypeOPos,
		NationalID:  "NID-88412",
		Email:       "Ana.Reyes@Example.com",
	}
}

func TestCreatePatient_Success(t *testing.T) {
	svc, _ := newPatientFixture(t)
	caller := nurseCaller()

	p, err := svc.CreatePatient(context.Background(), registrationCommand(), caller)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != patient.StatusActive {
		t.Errorf("status = %s, want active", p.Status)
	}
	if p.Email != "ana.reyes@example.com" {
		t.Errorf("email not normalized: %q", p.Email)
	}
	if p.CreatedBy != caller.UserID {
		t.Error("created_by not set from caller")
	}
}

func TestCreatePatient_Forbidden(t *testing.T) {
	svc, _ := newPatientFixture(t)
	if _, err := svc.CreatePatient(context.Background(), registrationCommand(), patientCaller(uuid.New())); !errors.Is(err, ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden", err)
	}
}

func TestCreatePatient_DuplicateNationalID(t *testing.T) {
	svc, _ := newPatientFixture(t)
	if _, err := svc.CreatePatient(context.Background(), registrationCommand(), nurseCaller()); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if _, err := svc.CreatePatient(context.Background(), registrationCommand(), nurseCaller()); !errors.Is(err, patient.ErrPatientAlreadyExists) {
		t.Errorf("got %v, want ErrPatientAlreadyExists", err)
	}
}

func TestCreatePatient_Validation(t *testing.T) {
	svc, _ := newPatientFixture(t)

	cmd := registrationCommand()
	cmd.FirstName = "  "
	cmd.NationalID = ""
	cmd.Gender = patient.Gender("robot")

	var vErr *ValidationError
	_, err := svc.CreatePatient(context.Background(), cmd, nurseCaller())
	if !errors.As(err, &vErr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if len(vErr.Fields) != 3 {
		t.Errorf("expected 3 field errors, got %d: %v", len(vErr.Fields), vErr.Fields)
	}
}

func TestGetPatient_SelfAccess(t *testing.T) {
	svc, repo := newPatientFixture(t)
	p := activePatient()
	repo.put(p)

	if _, err := svc.GetPatient(context.Background(), p.ID, patientCaller(p.ID)); err != nil {
		t.Errorf("self read failed: %v", err)
	}
	if _, err := svc.GetPatient(context.Background(), p.ID, patientCaller(uuid.New())); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger read: got %v, want ErrForbidden", err)
	}
	if _, err := svc.GetPatient(context.Background(), p.ID, nurseCaller()); err != nil {
		t.Errorf("staff read failed: %v", err)
	}
}

func TestUpdatePatient_Success(t *testing.T) {
	svc, repo := newPatientFixture(t)
	p := activePatient()
	repo.put(p)

	phone := "+34 600 123 456"
	updated, err := svc.UpdatePatient(context.Background(), p.ID, &patient.UpdatePatientCommand{Phone: &phone}, nurseCaller())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Phone != phone {
		t.Errorf("phone = %q, want %q", updated.Phone, phone)
	}
}

func TestDeactivatePatient_SoftDeletes(t *testing.T) {
	svc, repo := newPatientFixture(t)
	p := activePatient()
	repo.put(p)

	if err := svc.DeactivatePatient(context.Background(), p.ID, nurseCaller()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.DeletedAt == nil {
		t.Error("patient not soft-deleted")
	}
}

func TestDeactivatePatient_Deceased(t *testing.T) {
	svc, repo := newPatientFixture(t)
	p := activePatient()
	p.Status = patient.StatusDeceased
	repo.put(p)

	if err := svc.DeactivatePatient(context.Background(), p.ID, nurseCaller()); !errors.Is(err, patient.ErrPatientDeceased) {
		t.Errorf("got %v, want ErrPatientDeceased", err)
	}
}

func TestListPatients_PagingDefaults(t *testing.T) {
	svc, repo := newPatientFixture(t)
	repo.put(activePatient())

	page, err := svc.ListPatients(context.Background(), &patient.ListPatientsQuery{PageSize: 5000}, nurseCaller())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.PageSize != 20 || page.Page != 1 {
		t.Errorf("paging not clamped: page=%d size=%d", page.Page, page.PageSize)
	}

	if _, err := svc.ListPatients(context.Background(), &patient.ListPatientsQuery{}, patientCaller(uuid.New())); !errors.Is(err, ErrForbidden) {
		t.Errorf("patient listing: got %v, want ErrForbidden", err)
	}
}
