package errors

import "errors"

var (
	ErrInvalidInvitationInput = errors.New("invitation: invalid input")
	ErrInvitationNotFound     = errors.New("invitation: not found")
	ErrInvitationFinal        = errors.New("invitation: response state is final")
	ErrInvalidResponseState   = errors.New("invitation: invalid response state")
	ErrNominationNotElected   = errors.New("invitation: nomination is not elected")
)
