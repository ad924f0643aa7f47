// Package main provides a probe client for the realtime websocket endpoint.
// It logs in, fetches a single-use ticket, connects, and prints every event it
// receives; optionally it sends a private message first.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	host := flag.String("host", "localhost:5000", "API server host")
	username := flag.String("username", "admin", "Username")
	password := flag.String("password", "SeedPass123!@", "Password")
	sendTo := flag.String("to", "", "Send one private message to this user, then keep listening")
	text := flag.String("text", "probe message", "Message text for -to")
	flag.Parse()

	token, err := login(*host, *username, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	log.Printf("Logged in as %s", *username)

	ticket, err := fetchTicket(*host, token)
	if err != nil {
		log.Fatalf("Ticket request failed: %v", err)
	}

	wsURL := url.URL{Scheme: "ws", Host: *host, Path: "/api/ws/", RawQuery: "ticket=" + ticket}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer func() { _ = conn.Close() }()
	log.Printf("Connected to %s", wsURL.String())

	if *sendTo != "" {
		event := map[string]any{
			"type":    "private_message",
			"payload": map[string]string{"to": *sendTo, "text": *text},
		}
		if err := conn.WriteJSON(event); err != nil {
			log.Fatalf("Send failed: %v", err)
		}
		log.Printf("Sent private_message to %s", *sendTo)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Printf("Read error: %v", err)
				return
			}
			log.Printf("<- %s", message)
		}
	}()

	select {
	case <-interrupt:
		log.Println("Interrupted, closing connection")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	case <-done:
	}
}

func login(host, username, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	resp, err := http.Post(
		fmt.Sprintf("http://%s/api/auth/login", host),
		"application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned %d", resp.StatusCode)
	}

	var decoded struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Token == "" {
		return "", fmt.Errorf("no token in login response")
	}
	return decoded.Token, nil
}

func fetchTicket(host, token string) (string, error) {
	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("http://%s/api/ws/ticket", host), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ticket endpoint returned %d", resp.StatusCode)
	}

	var decoded struct {
		Ticket string `json:"ticket"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Ticket == "" {
		return "", fmt.Errorf("no ticket in response")
	}
	return decoded.Ticket, nil
}
