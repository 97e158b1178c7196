package validators

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

type quoteBody struct {
	Platform string           `json:"platform" validate:"required,oneof=whatnot ebay"`
	Price    decimal.Decimal  `json:"price" validate:"gte=0"`
	Override *decimal.Decimal `json:"override,omitempty" validate:"omitempty,gte=0"`
}

func TestDecodeJSONBodyValidatesDecimals(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"platform":"ebay","price":"-1","override":-2}`))
	var body quoteBody
	err := DecodeJSONBody(req, &body)

	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "must be greater than or equal to 0", details["price"])
	assert.Equal(t, "must be greater than or equal to 0", details["override"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"platform":"ebay","price":1,"tip":2}`))
	var body quoteBody
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyAccepts(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"platform":"whatnot","price":"12.50"}`))
	var body quoteBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.True(t, body.Price.Equal(decimal.RequireFromString("12.5")))
}

func TestReadUploadRawAndMultipart(t *testing.T) {
	raw := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("Item#,Sold Price\n1,10\n"))
	raw.Header.Set("Content-Type", "text/csv")
	data, err := ReadUpload(raw, 1024)
	require.NoError(t, err)
	assert.Equal(t, "Item#,Sold Price\n1,10\n", string(data))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(UploadField, "export.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("Lot,Price\n2,5\n"))
	require.NoError(t, mw.WriteField("mode", "sequence"))
	require.NoError(t, mw.Close())

	form := httptest.NewRequest(http.MethodPost, "/?mode=item_number", &buf)
	form.Header.Set("Content-Type", mw.FormDataContentType())
	data, err = ReadUpload(form, 1024)
	require.NoError(t, err)
	assert.Equal(t, "Lot,Price\n2,5\n", string(data))
	assert.Equal(t, "sequence", Param(form, "mode"))
}

func TestReadUploadLimits(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	_, err := ReadUpload(req, 4)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, "upload too large", pkgerrors.As(err).Message())
}

func TestReadUploadMissingFilePart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("mode", "auto"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	_, err := ReadUpload(req, 1024)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestQueryParsers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?rows=1,%203,,7&flag=true&bad=x&rate=0.1&n=5", nil)

	rows, err := ParseQueryInts(req, "rows")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 7}, rows)

	absent, err := ParseQueryInts(req, "missing")
	require.NoError(t, err)
	assert.Nil(t, absent)

	_, err = ParseQueryInts(req, "bad")
	assert.Error(t, err)

	flag, err := ParseQueryBool(req, "flag", false)
	require.NoError(t, err)
	assert.True(t, flag)

	rate, err := ParseQueryDecimal(req, "rate")
	require.NoError(t, err)
	assert.Equal(t, "0.1", rate.String())

	_, err = ParseQueryInt(req, "n", 1, 1, 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList("  "))
	assert.Equal(t, []string{"psa", "lot"}, SplitList(" psa, ,lot "))
}
