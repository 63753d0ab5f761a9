// Package server exposes the query pipeline over a WebSocket so the
// assistant can back a web front end. Planned calls are executed without
// a confirmation step since there is no terminal to prompt on.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/mbarlow/apiq/pkg/executor"
	"github.com/mbarlow/apiq/pkg/index"
	"github.com/mbarlow/apiq/pkg/llm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the wire format for both directions: the client sends
// {type: "query", content: ...}, the server streams stage updates back.
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

type WSServer struct {
	index      *index.Index
	planner    *llm.Planner
	executor   *executor.Executor
	summarizer *llm.Summarizer
}

func New(ix *index.Index, planner *llm.Planner, exec *executor.Executor, summarizer *llm.Summarizer) *WSServer {
	return &WSServer{
		index:      ix,
		planner:    planner,
		executor:   exec,
		summarizer: summarizer,
	}
}

// ListenAndServe registers the websocket and health endpoints and blocks.
func (s *WSServer) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	log.Printf("Starting WebSocket server on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Error reading message: %v", err)
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message: %v", err)
			continue
		}

		// One query runs end to end before the next is read.
		s.handleQuery(r.Context(), conn, msg.Content)
	}
}

func (s *WSServer) handleQuery(ctx context.Context, conn *websocket.Conn, query string) {
	docContext, err := s.index.Retrieve(ctx, query)
	if err != nil {
		s.sendMessage(conn, "error", "Error retrieving documentation: "+err.Error(), nil)
		return
	}
	if docContext == "" {
		s.sendMessage(conn, "response", "I don't have any relevant API documentation for that request.", nil)
		return
	}

	plan, err := s.planner.Plan(ctx, query, docContext)
	if err != nil {
		s.sendMessage(conn, "error", "Error planning API call: "+err.Error(), nil)
		return
	}

	switch p := plan.(type) {
	case llm.ReplyPlan:
		s.sendMessage(conn, "response", p.Text, nil)

	case llm.CallPlan:
		s.sendMessage(conn, "call", "Executing API call", p.Call)

		result := s.executor.Execute(ctx, p.Call)
		s.sendMessage(conn, "result", "", result)

		summary, err := s.summarizer.Summarize(ctx, result, query)
		if err != nil {
			s.sendMessage(conn, "error", "Error summarizing response: "+err.Error(), nil)
			return
		}
		s.sendMessage(conn, "summary", summary, nil)
	}
}

func (s *WSServer) sendMessage(conn *websocket.Conn, msgType, content string, data interface{}) {
	msg := Message{
		Type:    msgType,
		Content: content,
		Data:    data,
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
