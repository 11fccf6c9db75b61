package feeders

import (
	"errors"
)

// Static error definitions for feeders
var (
	ErrUnsupportedFileType = errors.New("unsupported config file type")
	ErrInvalidStructure    = errors.New("expected pointer to struct")
	ErrFieldCannotBeSet    = errors.New("field cannot be set")
	ErrEmptyPrefix         = errors.New("env: prefix cannot be empty")
)
