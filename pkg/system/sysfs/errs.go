package sysfs

import "errors"

var (
	// ErrEmpty indicates that an attribute file existed but contained no data.
	ErrEmpty = errors.New("sysfs: empty attribute file")
)
