package activity

import "errors"

var ErrInternal = errors.New("internal error")
