package storage

import (
	"encoding/json"

	"github.com/gruzdev-dev/codex-users/core/domain"
)

// EncodeUsers renders the collection the way it is kept at rest: a JSON array
// indented by two spaces. A nil collection is written as [].
func EncodeUsers(users []domain.User) ([]byte, error) {
	if users == nil {
		users = []domain.User{}
	}
	return json.MarshalIndent(users, "", "  ")
}

// DecodeUsers parses a stored document. A JSON null decodes to an empty
// collection.
func DecodeUsers(data []byte) ([]domain.User, error) {
	var users []domain.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}
