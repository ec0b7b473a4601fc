// Package pkg, katmanlar arası paylaşılan yardımcıları barındırır.
// Bu dosya domain seviyesindeki sentinel error'ları tanımlar.
//
// Service katmanı bu error'ları wrap ederek döner:
//
//	return fmt.Errorf("%w: quantity must be at least 1", pkg.ErrBadRequest)
//
// Handler katmanı errors.Is ile yakalayıp HTTP status'a çevirir.
package pkg

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyExists   = errors.New("already exists")
	ErrBadRequest      = errors.New("bad request")
	ErrConflict        = errors.New("conflict")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal error")
)
