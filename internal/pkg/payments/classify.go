package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrorClass is the closed classification of a failed store write. It
// decides retry behavior: transient failures propagate so the provider
// redelivers, permanent ones are acknowledged to stop the retry loop, and
// duplicate-key violations are converted into updates.
type ErrorClass int

const (
	ClassDuplicate ErrorClass = iota
	ClassTransient
	ClassPermanent
)

func (c ErrorClass) String() string {
	switch c {
	case ClassDuplicate:
		return "duplicate"
	case ClassTransient:
		return "transient"
	default:
		return "permanent"
	}
}

// MySQL server errors that are expected to succeed on retry. Adding a new
// transient code is a one-place change.
var transientMySQLCodes = map[uint16]struct{}{
	1040: {}, // too many connections
	1053: {}, // server shutdown in progress
	1205: {}, // lock wait timeout
	1213: {}, // deadlock
	2002: {}, // can't connect through socket
	2003: {}, // can't connect to server
	2006: {}, // server has gone away
	2013: {}, // lost connection during query
}

var transientMessageMarkers = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"broken pipe",
	"bad connection",
}

// Classify inspects a failed store or provider-API call and decides how the
// pipeline reacts. Unknown errors are permanent: retrying a write that can
// never succeed without manual intervention only builds an infinite retry
// loop.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassPermanent
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ClassDuplicate
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == 1062 {
			return ClassDuplicate
		}
		if _, ok := transientMySQLCodes[myErr.Number]; ok {
			return ClassTransient
		}
		return ClassPermanent
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, mysql.ErrInvalidConn) {
		return ClassTransient
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMessageMarkers {
		if strings.Contains(msg, marker) {
			return ClassTransient
		}
	}
	return ClassPermanent
}
