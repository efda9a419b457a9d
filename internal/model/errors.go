package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerExists   = errors.New("player already exists")
	ErrPlayerNotFound = errors.New("player not found")
	ErrNoPlayers      = errors.New("no players registered")

	// Ledger errors
	ErrRoundNotFound   = errors.New("round not found")
	ErrScoreOutOfRange = errors.New("score out of range")

	// Report errors
	ErrInvalidDateFilter = errors.New("date filter must be YYYY-MM-DD")
)
