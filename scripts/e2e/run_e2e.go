// Package main runs E2E smoke tests against a running leadrelay server.
//
// Scenarios cover the public lead-capture surface:
//   - Health check shape (status, timestamp, uptime)
//   - Happy-path lead submission
//   - Validation rejection with field messages
//   - Honeypot silent drop (success response, no row number)
//   - Malformed JSON handling
//   - CORS preflight on the submit endpoint
//   - Prometheus metrics exposure
//
// Usage:
//
//	API_BASE_URL=http://localhost:8080 go run scripts/e2e/run_e2e.go [scenario-name]
//	API_BASE_URL=... go run scripts/e2e/run_e2e.go              # runs all
//	API_BASE_URL=... go run scripts/e2e/run_e2e.go happy-path   # runs one
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

const requestTimeout = 15 * time.Second

var apiBase string

// ---------------------------------------------------------------------------
// Scenario definition
// ---------------------------------------------------------------------------

type scenario struct {
	Name string
	Fn   func(t *T)
}

// T is a lightweight test context for a single scenario.
type T struct {
	passed int
	failed int
	name   string
}

func (t *T) check(name string, ok bool) {
	if ok {
		fmt.Printf("    PASS: %s\n", name)
		t.passed++
	} else {
		fmt.Printf("    FAIL: %s\n", name)
		t.failed++
	}
}

func (t *T) fatalf(format string, args ...interface{}) {
	fmt.Printf("    FATAL: "+format+"\n", args...)
	t.failed++
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var client = &http.Client{Timeout: requestTimeout}

func submitLead(payload map[string]interface{}) (int, map[string]interface{}, error) {
	body, _ := json.Marshal(payload)
	resp, err := client.Post(apiBase+"/api/submit-lead", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, result, nil
}

func uniqueEmail() string {
	return fmt.Sprintf("e2e-%d@example.com", time.Now().UnixNano())
}

func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

// 1. Health check returns the documented shape.
func scenarioHealth(t *T) {
	resp, err := client.Get(apiBase + "/api/health")
	if err != nil {
		t.fatalf("health request: %v", err)
		return
	}
	defer resp.Body.Close()

	t.check("health returns 200", resp.StatusCode == http.StatusOK)

	var health struct {
		Status    string  `json:"status"`
		Timestamp string  `json:"timestamp"`
		Uptime    float64 `json:"uptime"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.fatalf("decode health: %v", err)
		return
	}
	t.check("status is ok", health.Status == "ok")
	_, parseErr := time.Parse(time.RFC3339, health.Timestamp)
	t.check("timestamp is RFC3339", parseErr == nil)
	t.check("uptime is non-negative", health.Uptime >= 0)
}

// 2. Happy path: a valid submission is accepted.
func scenarioHappyPath(t *T) {
	code, result, err := submitLead(map[string]interface{}{
		"name":    "E2E Smoke Test",
		"email":   uniqueEmail(),
		"phone":   "555-867-5309",
		"message": "Automated smoke test submission; safe to delete this row.",
	})
	if err != nil {
		t.fatalf("submit: %v", err)
		return
	}

	t.check("submit returns 200", code == http.StatusOK)
	success, _ := result["success"].(bool)
	t.check("success is true", success)
	msg, _ := result["message"].(string)
	t.check("message says lead submitted", containsAny(msg, "submitted"))
	_, hasRow := result["rowNumber"]
	t.check("rowNumber present", hasRow)
}

// 3. Validation: a submission with no email is rejected with messages.
func scenarioValidation(t *T) {
	code, result, err := submitLead(map[string]interface{}{
		"name":    "Missing Email",
		"message": "no email on this one",
	})
	if err != nil {
		t.fatalf("submit: %v", err)
		return
	}

	t.check("invalid submit returns 400", code == http.StatusBadRequest)
	success, _ := result["success"].(bool)
	t.check("success is false", !success)
	msg, _ := result["message"].(string)
	t.check("message names the email field", containsAny(msg, "email"))
}

// 4. Honeypot: a filled trap field gets a success response without a row.
func scenarioHoneypot(t *T) {
	code, result, err := submitLead(map[string]interface{}{
		"name":      "Bot Mc BotFace",
		"email":     uniqueEmail(),
		"message":   "buy now",
		"_honeypot": "http://spam.example",
	})
	if err != nil {
		t.fatalf("submit: %v", err)
		return
	}

	t.check("honeypot submit returns 200", code == http.StatusOK)
	success, _ := result["success"].(bool)
	t.check("response looks successful", success)
	_, hasRow := result["rowNumber"]
	t.check("no rowNumber on filtered submission", !hasRow)
}

// 5. Malformed JSON body.
func scenarioMalformedJSON(t *T) {
	resp, err := client.Post(apiBase+"/api/submit-lead", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.fatalf("submit: %v", err)
		return
	}
	defer resp.Body.Close()

	t.check("malformed body returns 400", resp.StatusCode == http.StatusBadRequest)
	body, _ := io.ReadAll(resp.Body)
	t.check("error mentions JSON", containsAny(string(body), "json"))
}

// 6. CORS preflight on the submit endpoint.
func scenarioCORSPreflight(t *T) {
	req, _ := http.NewRequest(http.MethodOptions, apiBase+"/api/submit-lead", nil)
	req.Header.Set("Origin", "https://www.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := client.Do(req)
	if err != nil {
		t.fatalf("preflight: %v", err)
		return
	}
	defer resp.Body.Close()

	t.check("preflight returns 204", resp.StatusCode == http.StatusNoContent)
	t.check("allow-origin header set", resp.Header.Get("Access-Control-Allow-Origin") != "")
}

// 7. Metrics endpoint exposes lead counters.
func scenarioMetrics(t *T) {
	resp, err := client.Get(apiBase + "/metrics")
	if err != nil {
		t.fatalf("metrics request: %v", err)
		return
	}
	defer resp.Body.Close()

	t.check("metrics returns 200", resp.StatusCode == http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	t.check("exposes leadrelay metrics", strings.Contains(string(body), "leadrelay_"))
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	apiBase = os.Getenv("API_BASE_URL")
	if apiBase == "" {
		fmt.Fprintln(os.Stderr, "ERROR: API_BASE_URL required")
		os.Exit(1)
	}
	apiBase = strings.TrimRight(apiBase, "/")

	scenarios := []scenario{
		{"health", scenarioHealth},
		{"happy-path", scenarioHappyPath},
		{"validation", scenarioValidation},
		{"honeypot", scenarioHoneypot},
		{"malformed-json", scenarioMalformedJSON},
		{"cors-preflight", scenarioCORSPreflight},
		{"metrics", scenarioMetrics},
	}

	// Filter by name if argument provided
	filter := ""
	if len(os.Args) > 1 {
		filter = os.Args[1]
	}

	totalPassed := 0
	totalFailed := 0
	scenarioResults := make([]string, 0)

	for _, s := range scenarios {
		if filter != "" && s.Name != filter {
			continue
		}

		fmt.Printf("\n========================================\n")
		fmt.Printf("SCENARIO: %s\n", s.Name)
		fmt.Printf("========================================\n")

		t := &T{name: s.Name}
		s.Fn(t)

		totalPassed += t.passed
		totalFailed += t.failed

		status := "✅"
		if t.failed > 0 {
			status = "❌"
		}
		scenarioResults = append(scenarioResults, fmt.Sprintf("  %s %s (%d passed, %d failed)", status, s.Name, t.passed, t.failed))
	}

	fmt.Printf("\n========================================\n")
	fmt.Println("SUMMARY")
	fmt.Printf("========================================\n")
	for _, r := range scenarioResults {
		fmt.Println(r)
	}
	fmt.Printf("\nTotal: %d passed, %d failed\n", totalPassed, totalFailed)

	if totalFailed > 0 {
		fmt.Println("\n❌ SOME TESTS FAILED")
		os.Exit(1)
	}
	fmt.Println("\n✅ ALL TESTS PASSED")
}
