//go:build integration

package tests

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gruzdev-dev/codex-users/adapters/storage"
	"github.com/gruzdev-dev/codex-users/core/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersIntegration(t *testing.T) {
	env := SetupTestEnv(t)
	defer env.Cleanup()

	request := func(t *testing.T, method, path, body string) (int, string) {
		t.Helper()

		req, err := http.NewRequest(method, env.ServerURL+path, strings.NewReader(body))
		require.NoError(t, err)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(data)
	}

	t.Run("Step 1: Empty document lists no users", func(t *testing.T) {
		code, body := request(t, http.MethodGet, "/users", "")
		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `[]`, body)
	})

	t.Run("Step 2: Create two users", func(t *testing.T) {
		code, body := request(t, http.MethodPost, "/users", `{"name":"A","age":30,"email":"a@x.com"}`)
		require.Equal(t, http.StatusCreated, code)
		assert.JSONEq(t, `{"id":1,"name":"A","age":30,"email":"a@x.com"}`, body)

		code, body = request(t, http.MethodPost, "/users", `{"name":"B","age":25,"email":"b@x.com"}`)
		require.Equal(t, http.StatusCreated, code)
		assert.JSONEq(t, `{"id":2,"name":"B","age":25,"email":"b@x.com"}`, body)
	})

	t.Run("Step 3: Verify document in database", func(t *testing.T) {
		users, err := getUsersFromDB(context.Background(), env.DB)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "A", users[0].Name)
		assert.Equal(t, "B", users[1].Name)
	})

	t.Run("Step 4: Update merges fields", func(t *testing.T) {
		code, body := request(t, http.MethodPut, "/users/2", `{"email":"new@x.com","city":"Riga"}`)
		require.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"id":2,"name":"B","age":25,"email":"new@x.com","city":"Riga"}`, body)

		code, body = request(t, http.MethodGet, "/users/2", "")
		require.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"id":2,"name":"B","age":25,"email":"new@x.com","city":"Riga"}`, body)
	})

	t.Run("Step 5: Delete returns the removed user", func(t *testing.T) {
		code, body := request(t, http.MethodDelete, "/users/1", "")
		require.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `[{"id":1,"name":"A","age":30,"email":"a@x.com"}]`, body)

		code, _ = request(t, http.MethodGet, "/users/1", "")
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("Step 6: Unknown ids leave the document unchanged", func(t *testing.T) {
		before, err := getUsersFromDB(context.Background(), env.DB)
		require.NoError(t, err)

		code, body := request(t, http.MethodDelete, "/users/99", "")
		assert.Equal(t, http.StatusNotFound, code)
		assert.JSONEq(t, `{"message":"User not found"}`, body)

		code, _ = request(t, http.MethodPut, "/users/99", `{"name":"Z"}`)
		assert.Equal(t, http.StatusNotFound, code)

		after, err := getUsersFromDB(context.Background(), env.DB)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("Step 7: Corrupt document fails under strict reads", func(t *testing.T) {
		_, err := env.DB.Exec(context.Background(),
			`UPDATE user_documents SET body = '{"not":"a list"}'::jsonb WHERE name = $1`, testDocument)
		require.NoError(t, err)

		code, body := request(t, http.MethodGet, "/users", "")
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.JSONEq(t, `{"message":"Failed to read users."}`, body)

		code, _ = request(t, http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})
}

func getUsersFromDB(ctx context.Context, pool *pgxpool.Pool) ([]domain.User, error) {
	var body []byte
	err := pool.QueryRow(ctx, `SELECT body FROM user_documents WHERE name = $1`, testDocument).Scan(&body)
	if err != nil {
		return nil, err
	}
	return storage.DecodeUsers(body)
}

