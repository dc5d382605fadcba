package persist

import "errors"

// ErrMediumRequired is returned when the plugin is installed without a
// medium.
var ErrMediumRequired = errors.New("persist: medium is required")
