package util

import "errors"

var (
	ErrStudentNotFound        = errors.New("student not found")
	ErrCompetencyNotFound     = errors.New("competency not found")
	ErrExerciseNotFound       = errors.New("exercise not found")
	ErrOptionNotFound         = errors.New("option not found")
	ErrOptionMismatch         = errors.New("option does not belong to exercise")
	ErrAmbiguousCorrectOption = errors.New("exercise has more than one correct option")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrStudentBusy            = errors.New("another answer for this student is being processed")
	ErrInvalidArgument        = errors.New("invalid argument")
)
