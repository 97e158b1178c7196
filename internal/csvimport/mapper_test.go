package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

func TestInferMappingWhatnotHeaders(t *testing.T) {
	headers := []string{"Item#", "Name", "Sold Price", "Fees", "Buyer"}

	m := InferMapping(headers)

	assert.Equal(t, Mapping{
		RoleItemNumber: 0,
		RoleTitle:      1,
		RoleSoldPrice:  2,
		RoleFees:       3,
		RoleBuyer:      4,
	}, m)
	require.NoError(t, m.Validate(headers))
}

func TestInferMappingFirstHeaderWins(t *testing.T) {
	m := InferMapping([]string{"Item Number", "Sold Price", "Price Paid", "Sold Date", "Shipping Fee", "Fees"})

	assert.Equal(t, 0, m[RoleItemNumber])
	assert.Equal(t, 1, m[RoleSoldPrice])
	assert.Equal(t, 3, m[RolePlacedAt])
	assert.Equal(t, 4, m[RoleShipping])
	assert.Equal(t, 5, m[RoleFees])
}

func TestInferMappingSoldAtIsPrice(t *testing.T) {
	m := InferMapping([]string{"Item #", "Sold At", "Price", "Sold Time"})
	assert.Equal(t, Mapping{RoleItemNumber: 0, RoleSoldPrice: 1, RolePlacedAt: 3}, m)
}

func TestInferMappingSkuAlias(t *testing.T) {
	m := InferMapping([]string{"SKU", "Total", "Platform", "Tax"})
	assert.Equal(t, Mapping{RoleItemNumber: 0, RoleSoldPrice: 1, RoleChannel: 2, RoleTaxes: 3}, m)
}

func TestValidateMissingRequired(t *testing.T) {
	headers := []string{"Name", "Buyer"}
	err := InferMapping(headers).Validate(headers)

	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"item_number", "sold_price"}, details["missing"])
}

func TestOverrideByHeader(t *testing.T) {
	headers := []string{"Lot Code", "Hammer", "Name"}
	base := InferMapping(headers)
	assert.Error(t, base.Validate(headers))

	m, err := base.Override(headers, map[Role]string{
		RoleItemNumber: "lot code",
		RoleSoldPrice:  "Hammer",
		RoleTitle:      "",
	})
	require.NoError(t, err)
	require.NoError(t, m.Validate(headers))
	assert.Equal(t, map[Role]string{RoleItemNumber: "Lot Code", RoleSoldPrice: "Hammer"}, m.Named(headers))

	_, hasTitle := base.Column(RoleTitle)
	assert.True(t, hasTitle, "override must not mutate the input mapping")
}

func TestOverrideRejectsUnknown(t *testing.T) {
	headers := []string{"a"}
	_, err := Mapping{}.Override(headers, map[Role]string{"colour": "a"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = Mapping{}.Override(headers, map[Role]string{RoleSoldPrice: "missing"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMappingString(t *testing.T) {
	assert.Equal(t, "item_number=0,sold_price=2", Mapping{RoleSoldPrice: 2, RoleItemNumber: 0}.String())
}
