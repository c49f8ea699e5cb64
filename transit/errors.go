package transit

import "errors"

var (
	ErrInvalidStop  = errors.New("invalid stop ID")
	ErrInvalidRoute = errors.New("invalid route ID")
	ErrInvalidTrip  = errors.New("invalid trip index")
	ErrInvalidTime  = errors.New("invalid time value")
	ErrInvalidData  = errors.New("invalid transit data")
)
