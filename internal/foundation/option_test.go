package foundation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionBasics(t *testing.T) {
	some := Some(42)
	require.True(t, some.IsSome())
	require.False(t, some.IsNone())
	require.Equal(t, 42, some.Unwrap())
	require.Equal(t, 42, some.UnwrapOr(7))

	none := None[int]()
	require.True(t, none.IsNone())
	require.Equal(t, 7, none.UnwrapOr(7))

	v, ok := some.Get()
	require.True(t, ok)
	require.Equal(t, 42, v)

	_, ok = none.Get()
	require.False(t, ok)
}

func TestOptionPointerConversions(t *testing.T) {
	some := Some("hello")
	p := some.ToPointer()
	require.NotNil(t, p)
	require.Equal(t, "hello", *p)

	require.Nil(t, None[string]().ToPointer())

	require.True(t, FromPointer[string](nil).IsNone())
	s := "world"
	require.Equal(t, "world", FromPointer(&s).Unwrap())
}

func TestMapOption(t *testing.T) {
	double := func(v int) int { return v * 2 }
	require.Equal(t, 10, MapOption(Some(5), double).Unwrap())
	require.True(t, MapOption(None[int](), double).IsNone())
}

func TestOptionJSONNullMapping(t *testing.T) {
	type wire struct {
		Error Option[string] `json:"error"`
		Count Option[int]    `json:"count"`
	}

	// Some marshals to the value, None to null.
	data, err := json.Marshal(wire{Error: Some("boom"), Count: None[int]()})
	require.NoError(t, err)
	require.JSONEq(t, `{"error": "boom", "count": null}`, string(data))

	// null unmarshals to None, a value to Some.
	var w wire
	require.NoError(t, json.Unmarshal([]byte(`{"error": null, "count": 3}`), &w))
	require.True(t, w.Error.IsNone())
	require.Equal(t, 3, w.Count.Unwrap())

	// An absent key leaves the zero value, which is None.
	var empty wire
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	require.True(t, empty.Error.IsNone())
	require.True(t, empty.Count.IsNone())
}
