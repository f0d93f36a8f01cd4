package record

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecord_MarshalRoundTrip(t *testing.T) {
	in := Record{
		Level:     2,
		Timestamp: 1700000000000,
		Pid:       4242,
		Tid:       4243,
		Line:      118,
		FileName:  "staging_sink.go",
		FuncName:  "drainStandby",
		Payload:   []byte("hello, world"),
	}

	out, err := Unmarshal(in.Marshal(nil))
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestRecord_MarshalAppends(t *testing.T) {
	r := Record{Level: 1, Payload: []byte("x")}
	buf := []byte("prefix")
	out := r.Marshal(buf)
	require.Equal(t, []byte("prefix"), out[:6])
}

func TestRecord_New(t *testing.T) {
	r := New(4, "/src/app/server/main.go", 7, "main.run", []byte("boom"))
	require.Equal(t, "main.go", r.FileName)
	require.Equal(t, int32(os.Getpid()), r.Pid)
	require.NotZero(t, r.Timestamp)
}

func TestBasename(t *testing.T) {
	cases := map[string]string{
		"/a/b/c.go":        "c.go",
		`C:\src\win\f.cpp`: "f.cpp",
		"plain.go":         "plain.go",
		"":                 "",
	}
	for in, want := range cases {
		require.Equal(t, want, Basename(in), "input %q", in)
	}
}

func TestUnmarshal_Malformed(t *testing.T) {
	_, err := Unmarshal([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	require.ErrorIs(t, err, ErrMalformed)
}
