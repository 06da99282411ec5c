package apperr

// NotFoundError marks a lookup that matched nothing, mapped to 404.
type NotFoundError struct {
	Message string
	Err     error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

func NewNotFound(msg string) *NotFoundError {
	return &NotFoundError{Message: msg}
}

// BadRequestError marks unusable caller input, mapped to 400.
type BadRequestError struct {
	Message string
	Err     error
}

func (e *BadRequestError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *BadRequestError) Unwrap() error {
	return e.Err
}

func NewBadRequest(msg string) *BadRequestError {
	return &BadRequestError{Message: msg}
}

func NewBadRequestWrap(msg string, err error) *BadRequestError {
	return &BadRequestError{Message: msg, Err: err}
}
