package repositories

import (
	"errors"

	"github.com/Masterminds/squirrel"
)

// SqBuilder is the shared statement builder. SQLite uses positional
// placeholders.
var SqBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var ErrBadQuery = errors.New("bad query")
