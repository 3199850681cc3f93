package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/copyleftdev/hypercube/internal/errors"
	"github.com/copyleftdev/hypercube/internal/optimization/objectives"
)

// JSON-RPC 2.0 error codes
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type idParams struct {
	OptimizationID string `json:"optimization_id"`
	History        bool   `json:"history,omitempty"`
}

// StartResponse is returned when a job has been accepted.
type StartResponse struct {
	ID     string `json:"optimization_id"`
	Status Status `json:"status"`
}

// decodeParams unmarshals params into v. Params may be an object or an array
// whose first element is the object.
func decodeParams(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return badRequest("missing params")
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return badRequest("%v", err)
		}
		if len(list) == 0 {
			return badRequest("missing params")
		}
		raw = list[0]
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return badRequest("%v", err)
	}
	return nil
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, codeParseError, "Parse error", nil, nil)
		return
	}

	// Validate JSON-RPC 2.0 request
	if request.JSONRPC != "2.0" || request.Method == "" {
		s.respondWithError(w, codeInvalidRequest, "Invalid Request", request.ID, nil)
		return
	}

	// Route to appropriate handler
	var result interface{}
	var err error

	switch request.Method {
	case "optimization.start":
		var params StartRequest
		if err = decodeParams(request.Params, &params); err == nil {
			result, err = s.rpcStart(params)
		}
	case "optimization.status":
		var params idParams
		if err = decodeParams(request.Params, &params); err == nil {
			result, err = s.optimizationStatus(params.OptimizationID, params.History)
		}
	case "optimization.cancel":
		var params idParams
		if err = decodeParams(request.Params, &params); err == nil {
			if err = s.cancelOptimization(params.OptimizationID); err == nil {
				result = StartResponse{ID: params.OptimizationID, Status: StatusCancelled}
			}
		}
	case "objectives.list":
		result = s.registry.List()
	default:
		s.respondWithError(w, codeMethodNotFound, "Method not found", request.ID, nil)
		return
	}

	if err != nil {
		if apperrors.HTTPStatus(err) == http.StatusBadRequest {
			s.respondWithError(w, codeInvalidParams, "Invalid params", request.ID, err.Error())
			return
		}
		s.respondWithError(w, codeServerError, "Server error", request.ID, err.Error())
		return
	}

	// Send successful response
	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) rpcStart(req StartRequest) (*StartResponse, error) {
	state, err := s.startOptimization(req)
	if err != nil {
		return nil, err
	}
	return &StartResponse{ID: state.ID, Status: StatusPending}, nil
}

// respondWithError sends a JSON-RPC 2.0 error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}, data interface{}) {
	fields := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if data != nil {
		fields["data"] = data
	}
	if code == codeServerError {
		s.logger.Error("Request error", fields)
	} else {
		s.logger.Warn("Request error", fields)
	}

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error":   rpcError{Code: code, Message: message, Data: data},
		"id":      id,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleOptimize handles POST /api/v1/optimize
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteJSON(w, badRequest("invalid request body: %v", err))
		return
	}

	state, err := s.startOptimization(req)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, StartResponse{ID: state.ID, Status: StatusPending})
}

// handleStatus handles GET /api/v1/status/{id}. ?history=true adds the
// recorded best points.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	withHistory, _ := strconv.ParseBool(r.URL.Query().Get("history"))

	resp, err := s.optimizationStatus(chi.URLParam(r, "id"), withHistory)
	if err != nil {
		apperrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCancel handles DELETE /api/v1/optimization/{id}
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.cancelOptimization(id); err != nil {
		apperrors.WriteJSON(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"optimization_id": id,
		"status":          "cancellation requested",
	})
}

// handleObjectives handles GET /api/v1/objectives
func (s *Server) handleObjectives(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]objectives.Objective{
		"objectives": s.registry.List(),
	})
}
