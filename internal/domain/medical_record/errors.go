package medical_record

import "errors"

var (
	ErrRecordNotFound    = errors.New("medical record not found")
	ErrDuplicateRecord   = errors.New("appointment already has a medical record")
	ErrInvalidRecordType = errors.New("invalid medical record type")
)
