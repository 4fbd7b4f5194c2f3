package protocol

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestEncode(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
		want []byte
	}{
		{
			name: "put",
			req:  NewPut(2, []byte{1, 2, 3, 4}, []byte("hi")),
			want: []byte{
				0x01, 0x02,
				0x00, 0x00, 0x00, 0x04, 1, 2, 3, 4,
				0x00, 0x00, 0x00, 0x02, 'h', 'i',
			},
		},
		{
			name: "put with empty value",
			req:  NewPut(7, []byte("k"), nil),
			want: []byte{
				0x01, 0x07,
				0x00, 0x00, 0x00, 0x01, 'k',
				0x00, 0x00, 0x00, 0x00,
			},
		},
		{
			name: "put with empty key and value",
			req:  NewPut(0, nil, nil),
			want: []byte{
				0x01, 0x00,
				0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00,
			},
		},
		{
			name: "get",
			req:  NewGet(255, []byte("name")),
			want: []byte{
				0x02, 0xff,
				0x00, 0x00, 0x00, 0x04, 'n', 'a', 'm', 'e',
			},
		},
		{
			name: "delete",
			req:  NewDelete(3, []byte{0xde, 0xad}),
			want: []byte{
				0x03, 0x03,
				0x00, 0x00, 0x00, 0x02, 0xde, 0xad,
			},
		},
		{
			name: "write carries only the global store id",
			req:  NewWrite(),
			want: []byte{0x04, 0x00},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.req.Encode())
		})
	}
}

func TestRequestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
	}{
		{name: "put", req: NewPut(2, []byte{1, 2, 3, 4}, []byte("Hello, Scalerize!"))},
		{name: "put empty value", req: NewPut(9, []byte("key"), nil)},
		{name: "put empty key", req: NewPut(9, nil, []byte("value"))},
		{name: "get", req: NewGet(0, []byte("some-key"))},
		{name: "delete", req: NewDelete(255, bytes.Repeat([]byte{0x00}, 1024))},
		{name: "write", req: NewWrite()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := ReadRequest(bytes.NewReader(tt.req.Encode()))
			require.NoError(t, err)

			require.Equal(t, tt.req.Op, decoded.Op)
			require.Equal(t, tt.req.Store, decoded.Store)
			require.Equal(t, tt.req.Key, decoded.Key)
			require.Equal(t, tt.req.Value, decoded.Value)
		})
	}
}

func TestReadRequestErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr error
	}{
		{name: "empty", input: nil, wantErr: io.EOF},
		{name: "truncated header", input: []byte{0x01}, wantErr: io.ErrUnexpectedEOF},
		{name: "unknown op", input: []byte{0x09, 0x00}, wantErr: ErrUnknownOp},
		{
			name:    "truncated key",
			input:   []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x05, 'a', 'b'},
			wantErr: io.ErrUnexpectedEOF,
		},
		{
			name:    "missing value field",
			input:   []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x01, 'k'},
			wantErr: io.EOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRequest(bytes.NewReader(tt.input))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReadRequestConsumesExactlyOneFrame(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(NewPut(1, []byte("a"), []byte("b")).Encode())
	stream.Write(NewWrite().Encode())
	stream.Write(NewGet(1, []byte("a")).Encode())

	first, err := ReadRequest(&stream)
	require.NoError(t, err)
	require.Equal(t, OpPut, first.Op)

	second, err := ReadRequest(&stream)
	require.NoError(t, err)
	require.Equal(t, OpWrite, second.Op)

	third, err := ReadRequest(&stream)
	require.NoError(t, err)
	require.Equal(t, OpGet, third.Op)
	require.Zero(t, stream.Len())
}
