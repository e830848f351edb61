// Package server exposes the RAG manager over HTTP: JSON endpoints for
// querying and ingestion, a WebSocket stream for chat, and a minimal HTML
// page. Errors from the manager surface as {"error": ...} responses; nothing
// is retried.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/xhad/biorag/internal/models"
	"github.com/xhad/biorag/pkg/rag"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// RAGService is the slice of the manager the handlers need.
type RAGService interface {
	AddPaper(ctx context.Context, paper models.Paper) (int, error)
	Query(ctx context.Context, question string, queryType models.QueryType) (models.Answer, error)
	QueryStream(ctx context.Context, question string, queryType models.QueryType) (<-chan string, error)
	AnalyzeTopic(ctx context.Context, topic string) (string, error)
	ImplementationSuggestions(ctx context.Context, topic string) (string, error)
	Stats(ctx context.Context) (rag.Stats, error)
}

// ContentFetcher fills in paper content from a URL when /add_paper receives
// a link without text.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Config struct {
	Port           string
	Model          string
	EmbeddingModel string
}

type Server struct {
	config  Config
	rag     RAGService
	fetcher ContentFetcher
}

func NewServer(config Config, ragService RAGService, fetcher ContentFetcher) *Server {
	return &Server{
		config:  config,
		rag:     ragService,
		fetcher: fetcher,
	}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/analyze_papers", s.handleAnalyzePapers)
	mux.HandleFunc("/get_implementation", s.handleGetImplementation)
	mux.HandleFunc("/add_paper", s.handleAddPaper)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// ListenAndServe starts the server on the configured port.
func (s *Server) ListenAndServe() error {
	addr := ":" + s.config.Port
	log.Printf("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

type queryRequest struct {
	Question string `json:"question"`
	Type     string `json:"type"`
}

type topicRequest struct {
	Topic string `json:"topic"`
}

type addPaperRequest struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Year    int      `json:"year"`
	URL     string   `json:"url"`
	Content string   `json:"content"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if err := indexTemplate.Execute(w, map[string]string{"Model": s.config.Model}); err != nil {
		log.Printf("Error rendering index: %v", err)
	}
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "no question provided")
		return
	}

	answer, err := s.rag.Query(r.Context(), req.Question, models.ParseQueryType(req.Type))
	if err != nil {
		log.Printf("Error processing query: %v", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"answer": answer.Text})
}

func (s *Server) handleAnalyzePapers(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "no topic provided")
		return
	}

	analysis, err := s.rag.AnalyzeTopic(r.Context(), req.Topic)
	if err != nil {
		log.Printf("Error analyzing papers: %v", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"analysis": analysis})
}

func (s *Server) handleGetImplementation(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "no topic provided")
		return
	}

	suggestions, err := s.rag.ImplementationSuggestions(r.Context(), req.Topic)
	if err != nil {
		log.Printf("Error getting implementation suggestions: %v", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"suggestions": suggestions})
}

func (s *Server) handleAddPaper(w http.ResponseWriter, r *http.Request) {
	var req addPaperRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Content == "" && req.URL == "" {
		writeError(w, http.StatusBadRequest, "content or url is required")
		return
	}

	content := req.Content
	if content == "" {
		if s.fetcher == nil {
			writeError(w, http.StatusBadRequest, "content is required")
			return
		}
		fetched, err := s.fetcher.Fetch(r.Context(), req.URL)
		if err != nil {
			log.Printf("Error fetching paper content: %v", err)
			writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to fetch content: %v", err))
			return
		}
		content = fetched
	}

	paper := models.Paper{
		Title:   req.Title,
		Authors: req.Authors,
		Year:    req.Year,
		URL:     req.URL,
		Content: content,
		Metadata: map[string]interface{}{
			"source": "user_upload",
		},
	}

	chunks, err := s.rag.AddPaper(r.Context(), paper)
	if err != nil {
		log.Printf("Error adding paper: %v", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Successfully added paper: %s (%d chunks)", req.Title, chunks),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.rag.Stats(r.Context())
	if err != nil {
		log.Printf("Error reading stats: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chunks":          stats.Chunks,
		"model":           s.config.Model,
		"embedding_model": s.config.EmbeddingModel,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Message is the WebSocket frame for the streaming chat.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("invalid message: %v", err))
			continue
		}
		if msg.Content == "" {
			s.sendMessage(conn, "error", "no question provided")
			continue
		}

		stream, err := s.rag.QueryStream(r.Context(), msg.Content, models.ParseQueryType(msg.Type))
		if err != nil {
			s.sendMessage(conn, "error", err.Error())
			continue
		}

		for chunk := range stream {
			s.sendMessage(conn, "stream", chunk)
		}
		s.sendMessage(conn, "done", "")
	}
}

func (s *Server) sendMessage(conn *websocket.Conn, msgType, content string) {
	msg := Message{
		Type:    msgType,
		Content: content,
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func statusFor(err error) int {
	var qErr *rag.QueryError
	var iErr *rag.IngestionError
	if errors.As(err, &qErr) || errors.As(err, &iErr) {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
