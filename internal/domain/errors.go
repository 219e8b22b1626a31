package domain

import "errors"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrSlotNotFound = errors.New("slot not found")
)
