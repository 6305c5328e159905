package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-stock-engine/pkg/jwt"
)

func TestParseClaims_Completos(t *testing.T) {
	tok, err := jwt.Generate("s3cret", "importador", "", "bodeguero", "stock-engine", 5)
	require.NoError(t, err)

	c, err := jwt.ParseClaims("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, "importador", c.UserID)
	assert.Equal(t, "importador", c.Subject)
	assert.Equal(t, "stock-engine", c.Issuer)
	assert.Equal(t, "bodeguero", c.Role)
	assert.Empty(t, c.CompanyID)
}

func TestSecretVacio(t *testing.T) {
	_, err := jwt.Generate("", "u", "", "admin", "i", 5)
	assert.ErrorIs(t, err, jwt.ErrEmptySecret)

	_, err = jwt.ParseClaims("", "x.y.z")
	assert.ErrorIs(t, err, jwt.ErrEmptySecret)
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := jwt.Generate("s3cret", "u", "", "admin", "i", -1)
	require.NoError(t, err)

	_, _, _, err = jwt.Parse("s3cret", tok)
	assert.Error(t, err)
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := jwt.Generate("s3cret", "u", "c", "admin", "i", 5)
	require.NoError(t, err)

	_, _, _, err = jwt.Parse("otro-secret", tok)
	assert.Error(t, err)
}
