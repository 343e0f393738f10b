package services

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCNIC(t *testing.T) {
	assert.Equal(t, "3520212345671", NormalizeCNIC(" 35202-1234567-1 "))
	assert.Equal(t, "3520212345671", NormalizeCNIC("35202 1234567 1"))
	assert.True(t, ValidCNIC("35202-1234567-1"))
	assert.False(t, ValidCNIC("35202-1234567"))
	assert.False(t, ValidCNIC("3520A12345671"))
}

func TestValidateStructReportsJSONFieldName(t *testing.T) {
	err := validateStruct(&dto.PledgeRequest{Amount: 5})
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "request_id", appErr.Field)
	assert.Equal(t, "request_id is required", appErr.Message)
}
