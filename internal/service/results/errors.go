package results

import "errors"

// ErrInvalidWindow is returned for malformed query windows, e.g. an end
// date before the start date.
var ErrInvalidWindow = errors.New("invalid query window")
