package errors

import "errors"

var (
	ErrInvalidFellowInput  = errors.New("invalid fellow input")
	ErrFellowNotFound      = errors.New("fellow not found")
	ErrPersonNotFound      = errors.New("person not found")
	ErrManuscriptNotFound  = errors.New("manuscript not found")
	ErrPoolEntryNotFound   = errors.New("pool entry not found")
	ErrFellowshipExists    = errors.New("active fellowship already exists for person in college")
	ErrInvalidActiveWindow = errors.New("fellowship window end precedes start")
)
