package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{
			name: "nil error is permanent",
			err:  nil,
			want: ClassPermanent,
		},
		{
			name: "gorm duplicated key",
			err:  gorm.ErrDuplicatedKey,
			want: ClassDuplicate,
		},
		{
			name: "mysql 1062 duplicate entry",
			err:  &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'sub_123' for key 'ux_subscriptions_provider_sub_id'"},
			want: ClassDuplicate,
		},
		{
			name: "mysql 1205 lock wait timeout",
			err:  &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"},
			want: ClassTransient,
		},
		{
			name: "mysql 1213 deadlock",
			err:  &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"},
			want: ClassTransient,
		},
		{
			name: "mysql 1040 too many connections",
			err:  &mysql.MySQLError{Number: 1040, Message: "Too many connections"},
			want: ClassTransient,
		},
		{
			name: "mysql 1048 not null violation is permanent",
			err:  &mysql.MySQLError{Number: 1048, Message: "Column 'user_id' cannot be null"},
			want: ClassPermanent,
		},
		{
			name: "wrapped mysql error keeps its class",
			err:  fmt.Errorf("create subscription: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}),
			want: ClassDuplicate,
		},
		{
			name: "context deadline exceeded",
			err:  context.DeadlineExceeded,
			want: ClassTransient,
		},
		{
			name: "driver invalid connection",
			err:  mysql.ErrInvalidConn,
			want: ClassTransient,
		},
		{
			name: "connection refused message marker",
			err:  errors.New("dial tcp 127.0.0.1:3306: connect: connection refused"),
			want: ClassTransient,
		},
		{
			name: "broken pipe message marker",
			err:  errors.New("write: broken pipe"),
			want: ClassTransient,
		},
		{
			name: "i/o timeout message marker",
			err:  errors.New("read tcp 10.0.0.2:53412: i/o timeout"),
			want: ClassTransient,
		},
		{
			name: "unknown error is permanent",
			err:  errors.New("json: cannot unmarshal string into Go value"),
			want: ClassPermanent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorClassString(t *testing.T) {
	if ClassDuplicate.String() != "duplicate" {
		t.Fatalf("ClassDuplicate.String() = %q", ClassDuplicate.String())
	}
	if ClassTransient.String() != "transient" {
		t.Fatalf("ClassTransient.String() = %q", ClassTransient.String())
	}
	if ClassPermanent.String() != "permanent" {
		t.Fatalf("ClassPermanent.String() = %q", ClassPermanent.String())
	}
}
