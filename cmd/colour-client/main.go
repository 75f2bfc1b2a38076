package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/redderi/avatar-colour/utils/log"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

const defaultServerURL = "ws://localhost:8080/ws"

type avatar struct {
	Username string `json:"username"`
	Initial  string `json:"initial"`
	Hex      string `json:"hex"`
}

type frameError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type frame struct {
	Type  string      `json:"type"`
	Data  avatar      `json:"data"`
	Error *frameError `json:"error"`
}

func main() {
	_ = gotenv.Load()
	log.Init(os.Getenv("DEBUG") == "true")

	serverURL := flag.String("url", envOr("COLOUR_SERVER_URL", defaultServerURL), "websocket endpoint")
	token := flag.String("token", os.Getenv("COLOUR_TOKEN"), "bearer token from /api/v1/auth/token")
	flag.Parse()

	u, err := url.Parse(*serverURL)
	if err != nil {
		log.With(zap.Error(err)).Fatal("Invalid server URL")
	}

	header := http.Header{}
	if *token != "" {
		header.Set("Authorization", "Bearer "+*token)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		log.With(zap.Error(err), zap.String("url", u.String())).Fatal("Failed to connect to server")
	}
	defer conn.Close()

	go func() {
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.With(zap.Error(err)).Info("Connection closed")
				os.Exit(0)
			}
			fmt.Println(render(message))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		os.Exit(0)
	}()

	reader := bufio.NewScanner(os.Stdin)
	fmt.Println("Enter usernames to colour (type 'exit' to quit):")
	for reader.Scan() {
		text := strings.TrimSpace(reader.Text())
		if text == "exit" {
			break
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
			log.With(zap.Error(err)).Error("Error sending username")
			break
		}
	}
}

func render(message []byte) string {
	var f frame
	if err := json.Unmarshal(message, &f); err != nil {
		return string(message)
	}
	switch f.Type {
	case "avatar":
		return fmt.Sprintf("%s  %s  %s", f.Data.Initial, f.Data.Hex, f.Data.Username)
	case "avatar.assigned":
		return fmt.Sprintf("* %s -> %s", f.Data.Username, f.Data.Hex)
	case "error":
		if f.Error != nil {
			return fmt.Sprintf("error: %s (%s)", f.Error.Message, f.Error.Code)
		}
	}
	return string(message)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
