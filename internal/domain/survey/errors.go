package survey

import "errors"

var (
	ErrMalformedSubmission = errors.New("malformed submission")
	ErrInvalidCatalog      = errors.New("invalid catalog")
	ErrCatalogNotLoaded    = errors.New("catalog is not loaded")
)
