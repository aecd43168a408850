package sshauth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHandshake(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "userauth rejection",
			err:  errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none password], no supported methods remain"),
			want: ErrAuthFail,
		},
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: ErrTimeout,
		},
		{
			name: "unrelated failure passes through",
			err:  errors.New("ssh: handshake failed: EOF"),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyHandshake(tt.err)
			if tt.want == nil {
				assert.Equal(t, tt.err, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}
