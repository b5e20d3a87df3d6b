package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vidstat/vidstat/internal/nlq"
	"github.com/vidstat/vidstat/internal/observability"
)

const metricsSource = "http"

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Value  int64  `json:"value"`
	Intent string `json:"intent"`
}

type explainResponse struct {
	SQL    string `json:"sql"`
	Args   []any  `json:"args"`
	Intent string `json:"intent"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	query, ok := compileQuestion(deps, w, r)
	if !ok {
		return
	}

	value, err := deps.Repo.FetchValue(r.Context(), query)
	if err != nil {
		observability.IncrementAnswerFailure(metricsSource)
		if deps.Logger != nil {
			deps.Logger.ErrorContext(r.Context(), "query failed",
				"intent", query.Intent,
				"error", err.Error(),
			)
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "QUERY_FAILED", "query execution failed", true, nil)
		return
	}

	observability.ObserveQuestion(metricsSource, query.Intent, time.Since(start))
	writeJSON(w, http.StatusOK, askResponse{Value: value, Intent: query.Intent})
}

func handleExplain(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	query, ok := compileQuestion(deps, w, r)
	if !ok {
		return
	}

	args := query.Args
	if args == nil {
		args = []any{}
	}
	writeJSON(w, http.StatusOK, explainResponse{SQL: query.SQL, Args: args, Intent: query.Intent})
}

func compileQuestion(deps Dependencies, w http.ResponseWriter, r *http.Request) (nlq.Query, bool) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON with a question field", false, nil)
		return nlq.Query{}, false
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "EMPTY_QUESTION", "question is required", false, nil)
		return nlq.Query{}, false
	}

	query, err := deps.Compiler.Compile(r.Context(), question)
	if err != nil {
		if errors.Is(err, nlq.ErrUnparseable) {
			observability.IncrementUnparsedQuestion(metricsSource)
			writeError(r.Context(), w, http.StatusUnprocessableEntity, "UNPARSEABLE", "question was not recognized", false, nil)
			return nlq.Query{}, false
		}
		if deps.Logger != nil {
			deps.Logger.ErrorContext(r.Context(), "compile failed", "error", err.Error())
		}
		writeError(r.Context(), w, http.StatusBadGateway, "COMPILE_FAILED", "question compilation failed", true, nil)
		return nlq.Query{}, false
	}
	return query, true
}
