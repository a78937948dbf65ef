package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	baseURL := os.Getenv("GENREFREQ_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	state := os.Getenv("QUERY_STATE")
	if state == "" {
		state = "Texas"
	}

	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting smoke test...")

	fmt.Println("1. Health check...")
	if !sendRequest(baseURL, http.MethodGet, "/healthz", nil) {
		fmt.Println("FAILED: Health check")
		os.Exit(1)
	}
	fmt.Println("PASSED: Health check")

	fmt.Println("2. Genre frequencies (POST)...")
	if !sendRequest(baseURL, http.MethodPost, "/genres", map[string]string{"state": state}) {
		fmt.Println("FAILED: POST /genres")
		os.Exit(1)
	}
	fmt.Println("PASSED: POST /genres")

	fmt.Println("3. Genre frequencies (GET)...")
	if !sendRequest(baseURL, http.MethodGet, "/genres/"+state, nil) {
		fmt.Println("FAILED: GET /genres/:state")
		os.Exit(1)
	}
	fmt.Println("PASSED: GET /genres/:state")
}

func sendRequest(baseURL, method, endpoint string, payload interface{}) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}

	fmt.Printf("Response: %s\n", string(respBody))
	return true
}
