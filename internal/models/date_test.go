package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSONRoundTrip(t *testing.T) {
	var payload struct {
		Date Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2026-05-01"}`), &payload))
	assert.Equal(t, NewDate(2026, time.May, 1), payload.Date)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-05-01"}`, string(out))
}

func TestDateAcceptsRFC3339(t *testing.T) {
	d, err := ParseDate("2026-05-01T23:30:00+07:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-05-01", d.String())

	_, err = ParseDate("01/05/2026")
	require.Error(t, err)
}

func TestDateZeroIsNull(t *testing.T) {
	out, err := json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2026-01-02", d.String())
	require.NoError(t, d.Scan([]byte("2026-02-03")))
	assert.Equal(t, "2026-02-03", d.String())
	require.Error(t, d.Scan(42))
}
