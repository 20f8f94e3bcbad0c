package memory

import "errors"

var (
	errSelfParent        = errors.New("product cannot be its own parent")
	errDuplicateImage    = errors.New("duplicate image path")
	errDuplicateRelation = errors.New("duplicate relation key")
)
