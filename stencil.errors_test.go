package stencil

import (
	"errors"
	"io"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClasses(t *testing.T) {
	pos := Position{Offset: 4, Line: 2, Column: 3}

	tests := []struct {
		name     string
		err      error
		sentinel error
		class    func(error) bool
	}{
		{"unknown tag", NewUnknownTagError("bogus", "bogus x", pos, []string{"for"}), ErrUnknownTag, IsSyntaxError},
		{"malformed", NewMalformedBlockError("!!", pos), ErrMalformedBlock, IsSyntaxError},
		{"arguments", NewInvalidArgumentsError("for", "x", UsageFor, pos), ErrInvalidArguments, IsSyntaxError},
		{"unterminated", NewUnterminatedBlockError("for", "endfor", pos), ErrUnterminatedBlock, IsSyntaxError},
		{"unknown filter", NewUnknownFilterError("shout", "x|shout", nil), ErrUnknownFilter, IsSyntaxError},
		{"missing loader", NewMissingLoaderError("a", pos), ErrMissingLoader, IsConfigError},
		{"unknown extension", NewUnknownExtensionError("x", pos, nil), ErrUnknownExtension, IsConfigError},
		{"filter failed", NewFilterFailedError("json", "x|json", io.EOF), ErrFilterFailed, IsRenderError},
		{"not iterable", NewNotIterableError("n", 3, pos), ErrNotIterable, IsRenderError},
		{"max depth", NewMaxDepthError("a", 17, 16), ErrMaxDepthExceeded, IsRenderError},
		{"in use", NewContextInUseError(), ErrContextInUse, IsRenderError},
		{"extension failed", NewExtensionFailedError("x", io.EOF), ErrExtensionFailed, IsRenderError},
		{"not found", NewTemplateNotFoundError("a"), ErrTemplateNotFound, IsStorageError},
		{"closed", NewStorageClosedError(), ErrStorageClosed, IsStorageError},
		{"invalid name", NewInvalidTemplateNameError("..", ReasonPathTraversal), ErrInvalidTemplateName, IsStorageError},
		{"driver", NewStorageDriverNotFoundError("x", nil), ErrStorageDriverNotFound, IsStorageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.True(t, tt.class(tt.err))

			var cerr *cuserr.CustomError
			assert.True(t, errors.As(tt.err, &cerr))
		})
	}
}

func TestErrorMetadata(t *testing.T) {
	pos := Position{Offset: 10, Line: 3, Column: 5}
	err := NewUnterminatedBlockError("if", "endif", pos)

	var cerr *cuserr.CustomError
	require.True(t, errors.As(err, &cerr))

	for key, want := range map[string]string{
		MetaKeyTag:    "if",
		MetaKeyEndTag: "endif",
		MetaKeyLine:   "3",
		MetaKeyColumn: "5",
		MetaKeyOffset: "10",
	} {
		got, ok := cerr.GetMetadata(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
	assert.Contains(t, err.Error(), "line 3, column 5")
}

func TestErrorsKeepCause(t *testing.T) {
	err := NewExtensionFailedError("x", io.ErrUnexpectedEOF)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	err = NewStorageError(ErrMsgStorageQueryFailed, io.EOF)
	assert.True(t, errors.Is(err, io.EOF))
	assert.True(t, IsStorageError(err))

	err = NewIncludeFailedError("a", Position{Line: 1, Column: 1}, NewTemplateNotFoundError("a"))
	assert.True(t, IsRenderError(err))
	assert.True(t, IsNotFound(err))
}

func TestNotIterableNilValue(t *testing.T) {
	err := NewNotIterableError("x", nil, Position{})
	assert.Contains(t, err.Error(), "<nil>")
}
