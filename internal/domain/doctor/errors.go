package doctor

import "errors"

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrDoctorInactive      = errors.New("doctor is not active")
	ErrDoctorAlreadyExists = errors.New("a doctor with that license number already exists")
)
