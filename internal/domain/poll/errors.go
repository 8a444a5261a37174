package poll

import "errors"

var (
	ErrPollNotFound           = errors.New("poll not found")
	ErrInvalidPollDefinition  = errors.New("invalid poll definition")
	ErrPollClosed             = errors.New("poll is not accepting votes")
	ErrUnknownOption          = errors.New("option does not belong to poll")
	ErrInvalidChoiceCount     = errors.New("invalid number of chosen options")
	ErrDuplicateOption        = errors.New("chosen options contain duplicates")
	ErrForbidden              = errors.New("only the creator can close this poll")
	ErrAlreadyClosed          = errors.New("poll is already closed")
	ErrConcurrentModification = errors.New("poll was modified concurrently")
)
