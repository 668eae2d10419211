package mocks

import "github.com/phrazzld/todo-api/internal/service/auth"

// MockPasswordVerifier implements auth.PasswordVerifier against the hashes
// produced by MockUserStore.
type MockPasswordVerifier struct {
	// CompareFn allows for custom comparison logic in tests
	CompareFn func(hashedPassword, password string) error

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

// Compare implements the auth.PasswordVerifier interface
func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	m.CompareCallCount++

	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if hashedPassword != FakeHash(password) {
		return auth.ErrInvalidCredentials
	}
	return nil
}
