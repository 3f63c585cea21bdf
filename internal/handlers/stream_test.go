package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openballot/backend/internal/tally"
)

// TestResultsStream opens a live results stream, casts a vote, and
// expects the coalesced re-tally to arrive as a server-sent event.
func TestResultsStream(t *testing.T) {
	resetTables(t)

	_, adminToken := registerAdmin(t, "admin")
	_, voterToken := registerUser(t, "voter")
	election := createElection(t, adminToken, "Live", "A", "B")

	srv := httptest.NewServer(testRouter)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	url := srv.URL + fmt.Sprintf("/api/elections/%d/stream", election.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+voterToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	dataLines := make(chan string, 8)
	go func() {
		defer close(dataLines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data:") {
				dataLines <- strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}
		}
	}()

	readResult := func(what string) tally.Result {
		select {
		case data, ok := <-dataLines:
			require.True(t, ok, "stream ended before %s", what)
			var result tally.Result
			require.NoError(t, json.Unmarshal([]byte(data), &result))
			return result
		case <-time.After(10 * time.Second):
			t.Fatalf("timed out waiting for %s", what)
			return tally.Result{}
		}
	}

	snapshot := readResult("initial snapshot")
	assert.Equal(t, int64(0), snapshot.TotalVotes)

	w := castVote(t, voterToken, election.ID, election.Options[0].ID)
	require.Equal(t, http.StatusCreated, w.Code)

	updated := readResult("post-vote update")
	assert.Equal(t, int64(1), updated.TotalVotes)
	require.NotNil(t, updated.Leader)
	assert.Equal(t, "A", updated.Leader.Name)
}
