package engine

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// The engine is an in-process interpreter; this handler is the optional
// standalone boundary: submit (flow name, variables, origin), receive the
// terminal state, bound variables, and emitted events. Each request runs in
// a fresh scene, so callers get single-owner semantics for free.

type executeRequest struct {
	Origin    string         `json:"origin" binding:"required"`
	Variables map[string]any `json:"variables"`
}

type executeResponse struct {
	TerminalState string           `json:"terminal_state"`
	Message       string           `json:"message,omitempty"`
	Variables     map[string]any   `json:"variables,omitempty"`
	Events        []emittedEvent   `json:"events,omitempty"`
	StepHistory   []map[string]any `json:"step_history,omitempty"`
}

type emittedEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// NewHTTPHandler mounts the engine's routes on a gin engine.
func NewHTTPHandler(app *App, g *gin.Engine, logger *slog.Logger) {
	if logger == nil {
		logger = app.Logger()
	}

	g.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "flows": app.Library.Names()})
	})

	g.POST("/flows/:name/execute", func(c *gin.Context) {
		var req executeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body: " + err.Error()})
			return
		}

		scene, err := app.NewScene()
		if err != nil {
			logger.Error("scene setup failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}

		fx, err := app.RunFlow(scene, c.Param("name"), StringOrigin(req.Origin), req.Variables)
		if err != nil && !IsDomainError(err) {
			logger.Error("flow execution failed",
				"flow", c.Param("name"),
				"origin", req.Origin,
				"error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}

		resp := executeResponse{TerminalState: "deduplicated"}
		if err != nil {
			resp.Message = err.Error()
		}
		if fx != nil {
			resp.TerminalState = fx.TerminalState()
			if fx.Message() != "" {
				resp.Message = fx.Message()
			}
			resp.Variables = jsonSafeMap(fx.Variables)
			for _, e := range fx.Emitted {
				resp.Events = append(resp.Events, emittedEvent{Type: e.Type(), Data: jsonSafeMap(e.Data)})
			}
			for _, s := range scene.Stack.StepHistory {
				resp.StepHistory = append(resp.StepHistory, map[string]any{
					"flow": s.FlowName, "step": s.StepID, "action": string(s.Action),
				})
			}
		}
		c.JSON(http.StatusOK, resp)
	})
}

// jsonSafeMap replaces engine values that do not serialize (states, events,
// executions) with their identities.
func jsonSafeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = jsonSafeValue(v)
	}
	return out
}

func jsonSafeValue(v any) any {
	switch x := v.(type) {
	case *State:
		return x.Identity()
	case Object:
		return x.Identity()
	case *FlowEvent:
		return map[string]any{"type": x.Type(), "data": jsonSafeMap(x.Data)}
	case *FlowExecution:
		return x.ID
	case []*State:
		ids := make([]any, len(x))
		for i, st := range x {
			ids[i] = st.Identity()
		}
		return ids
	case map[string]any:
		return jsonSafeMap(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = jsonSafeValue(item)
		}
		return out
	}
	return v
}
