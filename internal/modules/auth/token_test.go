package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_TokenIssuer_Round_Trip(t *testing.T) {
	// Arrange
	issuer := NewTokenIssuer("test-secret")
	userID := uuid.New()

	// Act
	token, err := issuer.Issue(userID)
	require.NoError(t, err)

	parsed, err := issuer.Parse(token)

	// Assert
	require.NoError(t, err)
	require.Equal(t, userID, parsed)
}

func Test_TokenIssuer_Rejects_Foreign_Secret(t *testing.T) {
	// Arrange
	issuer := NewTokenIssuer("test-secret")
	other := NewTokenIssuer("other-secret")

	token, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	// Act
	_, err = other.Parse(token)

	// Assert
	require.Error(t, err)
}

func Test_TokenIssuer_Rejects_Garbage(t *testing.T) {
	// Arrange
	issuer := NewTokenIssuer("test-secret")

	// Act
	_, err := issuer.Parse("not-a-token")

	// Assert
	require.Error(t, err)
}
