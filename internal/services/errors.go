// Package services defines the business logic for identity, crafting, presets
// and the guess game. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked by
// callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Identity errors.
var (
	// ErrInvalidUsername is returned when a username is shorter than two
	// characters after trimming.
	ErrInvalidUsername = errors.New("username must be at least 2 characters")

	// ErrUsernameTaken is returned when the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidToken is returned when a token does not resolve to a user.
	ErrInvalidToken = errors.New("invalid token")

	// ErrEmptyToken is returned when login is attempted without a token.
	ErrEmptyToken = errors.New("token is required")
)

// Crafting errors.
var (
	// ErrMissingElementIDs is returned when either craft input is empty.
	ErrMissingElementIDs = errors.New("both element ids are required")

	// ErrElementNotFound indicates an unknown element id.
	ErrElementNotFound = errors.New("element not found")

	// ErrCraftFailed is returned when generation produced no usable element.
	// The pair stays uncached so a later request retries it.
	ErrCraftFailed = errors.New("craft failed")
)

// Guess game errors.
var (
	// ErrQuestionNotFound indicates an unknown question id.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrQuestionExists is returned by admin generation for a taken seed.
	ErrQuestionExists = errors.New("question already exists for this seed")

	// ErrQuestionNotGenerated is returned for seeds other than today's date
	// that no admin has generated yet.
	ErrQuestionNotGenerated = errors.New("question has not been generated")

	// ErrInvalidCharacter is returned when a guess is not exactly one character.
	ErrInvalidCharacter = errors.New("guess must be exactly one character")

	// ErrEmptyGuessBatch is returned when a batch submit carries no characters.
	ErrEmptyGuessBatch = errors.New("characters must be a non-empty array")

	// ErrAlreadyGuessed is returned when the user already guessed a character.
	ErrAlreadyGuessed = errors.New("character already guessed")

	// ErrWordGeneration is returned when no unique word was found within the
	// retry budget.
	ErrWordGeneration = errors.New("failed to generate a unique word")

	// ErrInvalidSeed is returned for an empty seed string.
	ErrInvalidSeed = errors.New("seed string is required")
)
