// Package e2etests exercises a running deployment: ledgerd, commentd and a
// migrated database with the DEV seed applied. The tests are skipped unless
// E2E_LEDGER_URL and E2E_COMMENT_URL are set.
package e2etests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/guilhalves/spotlight/internal/auth"
)

const timeout = 5 * time.Second

var httpClient = &http.Client{Timeout: timeout}

type env struct {
	ledgerURL  string
	commentURL string
	issuer     *auth.Issuer
}

func loadEnv(t *testing.T) env {
	t.Helper()

	ledgerURL := os.Getenv("E2E_LEDGER_URL")
	commentURL := os.Getenv("E2E_COMMENT_URL")

	if ledgerURL == "" || commentURL == "" {
		t.Skip("E2E_LEDGER_URL / E2E_COMMENT_URL not set, skipping e2e tests")
	}

	secret := os.Getenv("AUTH_SECRET")
	if secret == "" {
		t.Fatal("AUTH_SECRET must be set for e2e tests")
	}

	return env{
		ledgerURL:  ledgerURL,
		commentURL: commentURL,
		issuer:     auth.NewIssuer(secret, time.Minute),
	}
}

func (e env) token(t *testing.T, p auth.Principal) string {
	t.Helper()

	token, err := e.issuer.Sign(p)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	return token
}

func doJSON(t *testing.T, method, url, token string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	return res.StatusCode, payload
}

func (e env) balance(t *testing.T, token string) float64 {
	t.Helper()

	code, body := doJSON(t, http.MethodGet, e.ledgerURL+"/balance", token, nil)
	if code != http.StatusOK {
		t.Fatalf("get balance: want 200, got %d (%s)", code, body)
	}

	var payload struct {
		UserBalance float64 `json:"userBalance"`
	}

	err := json.Unmarshal(body, &payload)
	if err != nil {
		t.Fatalf("decode balance: %v", err)
	}

	return payload.UserBalance
}

func TestE2E_HighlightedCommentFlow(t *testing.T) {
	e := loadEnv(t)

	// Fresh principal so reruns do not inherit balance or markers.
	user := auth.Principal{
		ID:    time.Now().UnixNano() % 1_000_000_000,
		Name:  "E2E Commenter",
		Email: "e2e@example.com",
	}
	token := e.token(t, user)

	t.Run("initial_balance_zero", func(t *testing.T) {
		got := e.balance(t, token)
		if got != 0 {
			t.Fatalf("initial balance: want 0, got %v", got)
		}
	})

	t.Run("credit_raises_balance", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, e.ledgerURL+"/transactions", token,
			map[string]any{"coins": 500, "type": "in"})
		if code != http.StatusCreated {
			t.Fatalf("credit: want 201, got %d (%s)", code, body)
		}

		// 500 discounted by the 5% tax to spend it.
		got := e.balance(t, token)
		if got != 475 {
			t.Fatalf("balance after credit: want 475, got %v", got)
		}
	})

	t.Run("paid_comment_debits_and_highlights", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, e.commentURL+"/comments", token,
			map[string]any{"post_id": 1, "title": "e2e", "content": "boosted comment", "coins": 50})
		if code != http.StatusCreated {
			t.Fatalf("create comment: want 201, got %d (%s)", code, body)
		}

		var created struct {
			ID          int64 `json:"id"`
			Highlighted bool  `json:"highlighted"`
		}

		err := json.Unmarshal(body, &created)
		if err != nil {
			t.Fatalf("decode comment: %v", err)
		}

		if !created.Highlighted {
			t.Fatalf("comment must be highlighted: %s", body)
		}

		// (500 - 50 - 2.5) * 0.95
		got := e.balance(t, token)
		if got != 425.125 {
			t.Fatalf("balance after comment: want 425.125, got %v", got)
		}

		code, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/comments/post/%d", e.commentURL, 1), token, nil)
		if code != http.StatusOK {
			t.Fatalf("list comments: want 200, got %d (%s)", code, body)
		}

		var list struct {
			Comments []struct {
				ID int64 `json:"id"`
			} `json:"comments"`
		}

		err = json.Unmarshal(body, &list)
		if err != nil {
			t.Fatalf("decode list: %v", err)
		}

		if len(list.Comments) == 0 || list.Comments[0].ID != created.ID {
			t.Fatalf("fresh highlight must rank first, got %s", body)
		}
	})

	t.Run("overspend_rejected", func(t *testing.T) {
		code, body := doJSON(t, http.MethodPost, e.commentURL+"/comments", token,
			map[string]any{"post_id": 1, "content": "too rich", "coins": 100000})
		if code != http.StatusPaymentRequired {
			t.Fatalf("overspend: want 402, got %d (%s)", code, body)
		}
	})

	t.Run("unauthenticated_rejected", func(t *testing.T) {
		code, _ := doJSON(t, http.MethodGet, e.ledgerURL+"/balance", "garbage", nil)
		if code != http.StatusUnauthorized {
			t.Fatalf("bad token: want 401, got %d", code)
		}
	})
}
