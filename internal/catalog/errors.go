package catalog

import "errors"

// ErrUnknownStage indicates a stage id that is not in the catalog. This is a
// configuration or programming error, not a runtime condition to recover from.
var ErrUnknownStage = errors.New("unknown stage")
