// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build linux

package i2cbus

import (
	"errors"
	"strings"

	"golang.org/x/sys/unix"
)

var errnoKinds = []struct {
	errno unix.Errno
	kind  Kind
}{
	{unix.ENXIO, KindNoAcknowledge},
	{unix.EREMOTEIO, KindNoAcknowledge},
	{unix.EAGAIN, KindArbitrationLost},
	{unix.EBUSY, KindBusBusy},
	{unix.ETIMEDOUT, KindTimeout},
}

// errnoKind maps i2c-dev errnos. periph's sysfs driver formats the errno
// with %v, so the errno text is matched too.
func errnoKind(err error) (Kind, bool) {
	var errno unix.Errno
	if errors.As(err, &errno) {
		for _, e := range errnoKinds {
			if errno == e.errno {
				return e.kind, true
			}
		}
		return KindOther, false
	}
	msg := err.Error()
	for _, e := range errnoKinds {
		if strings.HasSuffix(msg, e.errno.Error()) {
			return e.kind, true
		}
	}
	return KindOther, false
}
