package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jerrors "github.com/mycelian/travelmap/internal/errors"
)

func TestWriteKindError(t *testing.T) {
	cases := []struct {
		err  error
		code int
		kind string
	}{
		{jerrors.New(jerrors.KindPlaceNotFound, "x"), http.StatusNotFound, "PLACE_NOT_FOUND"},
		{jerrors.New(jerrors.KindLookupUnavailable, "x"), http.StatusServiceUnavailable, "LOOKUP_UNAVAILABLE"},
		{jerrors.New(jerrors.KindUnknownMemoryID, "x"), http.StatusNotFound, "UNKNOWN_MEMORY_ID"},
		{jerrors.New(jerrors.KindInvalid, "x"), http.StatusBadRequest, "INVALID_INPUT"},
		{errors.New("plain"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		WriteKindError(rr, tc.err)
		require.Equal(t, tc.code, rr.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, tc.kind, body.Kind)
		assert.Equal(t, tc.code, body.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	}
}
