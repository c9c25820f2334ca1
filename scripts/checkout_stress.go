//go:build ignore
// +build ignore

// Manual concurrency stress test for the checkout endpoint.
//
// Usage:
//
//	TOKEN=<access_token> go run ./scripts/checkout_stress.go [concurrency]
//
// What it does:
//  1. Fires N goroutines all hitting POST /orders/create-order with the
//     same customer token simultaneously.
//  2. Prints how many got a real order vs. an empty-cart rejection.
//
// Exactly one request should win: the transaction locks the cart lines,
// so every other request sees an already-drained cart.
//
// Prerequisites: server running, the customer's cart pre-filled with at
// least one book.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

const defaultServerAddr = "http://localhost:8080"

type checkoutResult struct {
	StatusCode int
	Body       string
	Err        error
}

func main() {
	serverAddr := os.Getenv("SERVER_ADDR")
	if serverAddr == "" {
		serverAddr = defaultServerAddr
	}
	token := os.Getenv("TOKEN")
	if token == "" {
		log.Fatal("Usage: TOKEN=<access_token> go run ./scripts/checkout_stress.go [concurrency]")
	}

	concurrency := 8
	if len(os.Args) > 1 {
		if n, err := strconv.Atoi(os.Args[1]); err == nil && n > 0 {
			concurrency = n
		}
	}

	fmt.Printf("=== Checkout Concurrency Test ===\n")
	fmt.Printf("Server: %s, concurrency: %d\n\n", serverAddr, concurrency)

	client := &http.Client{Timeout: 10 * time.Second}
	results := make([]checkoutResult, concurrency)
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			req, err := http.NewRequest(http.MethodPost, serverAddr+"/orders/create-order", nil)
			if err != nil {
				results[idx] = checkoutResult{Err: err}
				return
			}
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := client.Do(req)
			if err != nil {
				results[idx] = checkoutResult{Err: err}
				return
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			results[idx] = checkoutResult{StatusCode: resp.StatusCode, Body: string(body)}
		}(i)
	}

	close(start)
	wg.Wait()

	var created, emptyCart, other int
	for i, r := range results {
		switch {
		case r.Err != nil:
			other++
			fmt.Printf("  [%d] request error: %v\n", i, r.Err)
		case r.StatusCode == http.StatusCreated:
			created++
			var order struct {
				ID         string `json:"id"`
				TotalPrice string `json:"total_price"`
			}
			_ = json.Unmarshal([]byte(r.Body), &order)
			fmt.Printf("  [%d] order created: %s total=%s\n", i, order.ID, order.TotalPrice)
		case r.StatusCode == http.StatusBadRequest:
			emptyCart++
		default:
			other++
			fmt.Printf("  [%d] unexpected status %d: %s\n", i, r.StatusCode, r.Body)
		}
	}

	fmt.Printf("\ncreated=%d empty_cart=%d other=%d\n", created, emptyCart, other)
	if created != 1 {
		fmt.Println("FAIL: expected exactly one order to be created")
		os.Exit(1)
	}
	fmt.Println("OK: cart was spent exactly once")
}
