package repository

import "errors"

// ErrNotFound is returned when a requested record is not found in the repository.
// This abstracts away the underlying storage implementation (SQL, NoSQL, etc.)
// from the service layer.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert collides with a unique key,
// such as a second registration of the same session in a game.
var ErrDuplicate = errors.New("record already exists")

// ErrAnswersClosed is returned by UpsertAnswer when the question's game is
// not accepting answers. No row is written.
var ErrAnswersClosed = errors.New("game is not accepting answers")

// ErrStaleAnswer is returned by SetVerdict when the answer was resubmitted or
// judged after the verdict's snapshot was read. No row is written.
var ErrStaleAnswer = errors.New("answer changed since it was read")
