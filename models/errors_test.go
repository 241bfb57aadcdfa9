package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchError_WrapsCause(t *testing.T) {
	cause := errors.New("net::ERR_CONNECTION_RESET")
	err := NewFetchError(ErrCodeNavigation, "navigation failed after 3 attempts", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), ErrCodeNavigation)
	assert.Contains(t, err.Error(), cause.Error())

	var fe *FetchError
	require.ErrorAs(t, error(err), &fe)
	assert.Equal(t, ErrCodeNavigation, fe.Code)
}

func TestFetchError_ToDetailOmitsCause(t *testing.T) {
	err := NewFetchError(ErrCodeNoData, "no dividend data found on page",
		errors.New("internal parser state"))

	detail := err.ToDetail()
	assert.Equal(t, ErrCodeNoData, detail.Code)
	assert.NotContains(t, detail.Message, "parser", "internals never leak to clients")
}

func TestDividendInfo_Complete(t *testing.T) {
	full := DividendInfo{ExDate: "2024-01-15", PayDate: "2024-02-01", DividendAmount: "$0.48", YieldValue: "3.1%"}
	assert.True(t, full.Complete())

	missing := full
	missing.PayDate = ""
	assert.False(t, missing.Complete())
}
