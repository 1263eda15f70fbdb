package usecase

import "errors"

// ErrPersistence indicates an infrastructure/repository failure inside a use case.
var ErrPersistence = errors.New("chat use case persistence error")

// ErrForbidden indicates the caller may not access the requested conversation.
var ErrForbidden = errors.New("chat use case: access denied")
