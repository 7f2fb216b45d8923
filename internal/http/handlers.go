package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Flarenzy/vpc-provisioner/internal/domain"
	"github.com/aws/smithy-go"
)

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	a.respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} ErrorResponse
// @Router /readyz [get]
func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if a.Health != nil {
		if err := a.Health.Ping(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "record store ping failed", "err", err.Error())
			a.respond(w, r, http.StatusServiceUnavailable, ErrorResponse{Error: "record store unavailable"})
			return
		}
	}
	a.respond(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// @Summary Get a network or list all networks
// @Description Without network_id every stored network is returned.
// @Tags networks
// @Produce json
// @Param network_id query string false "Network ID"
// @Success 200 {object} NetworkResponse
// @Success 200 {object} NetworkListResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /networks [get]
func (a *API) handleGetNetworks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	networkID := r.URL.Query().Get("network_id")

	if networkID == "" {
		networks, err := a.Networks.ListNetworks(ctx)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		a.respond(w, r, http.StatusOK, NetworkListResponse{Networks: networksToResponse(networks)})
		return
	}

	network, err := a.Networks.GetNetwork(ctx, networkID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, networkToResponse(network))
}

// @Summary Create a network and its subnets
// @Tags networks
// @Accept json
// @Produce json
// @Param network body CreateNetworkRequest true "Network payload"
// @Success 200 {object} CreateNetworkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /networks [post]
func (a *API) handleCreateNetwork(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := decode[CreateNetworkRequest](r)
	defer r.Body.Close()
	if err != nil {
		a.Logger.DebugContext(ctx, "unmarshaling network from request", "err", err.Error())
		a.respond(w, r, http.StatusBadRequest, ErrorResponse{Error: "bad request: " + err.Error()})
		return
	}

	input, err := req.toInput()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	result, err := a.Networks.CreateNetwork(ctx, input)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, CreateNetworkResponse{NetworkID: result.NetworkID, SubnetIDs: result.SubnetIDs})
}

// @Summary Delete a network or every network
// @Description Without network_id every stored network is torn down, stopping at the first failure.
// @Tags networks
// @Produce json
// @Param network_id query string false "Network ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /networks [delete]
func (a *API) handleDeleteNetworks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	networkID := r.URL.Query().Get("network_id")

	if networkID == "" {
		if _, err := a.Networks.DeleteAllNetworks(ctx); err != nil {
			a.writeError(w, r, err)
			return
		}
		a.respond(w, r, http.StatusOK, MessageResponse{Message: "All networks and subnets deleted"})
		return
	}

	if err := a.Networks.DeleteNetwork(ctx, networkID); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.respond(w, r, http.StatusOK, MessageResponse{Message: fmt.Sprintf("Network %s and its subnets deleted", networkID)})
}

func (a *API) handleFallback(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/networks" {
		a.respond(w, r, http.StatusMethodNotAllowed, ErrorResponse{Error: "method " + r.Method + " not allowed"})
		return
	}
	a.respond(w, r, http.StatusNotFound, ErrorResponse{Error: "no route for " + r.URL.Path})
}

func (a *API) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := encode(w, r, status, v); err != nil {
		a.Logger.ErrorContext(r.Context(), "responding to client", "err", err.Error())
	}
}

// writeError maps err onto a status code and writes its text as the body.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.Logger.ErrorContext(ctx, "request failed", append([]any{"err", err.Error()}, remoteAttrs(err)...)...)
	} else {
		a.Logger.DebugContext(ctx, "request rejected", "status", status, "err", err.Error())
	}
	a.respond(w, r, status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var remote *domain.RemoteCallError
	switch {
	case errors.As(err, &remote):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func remoteAttrs(err error) []any {
	var attrs []any
	var remote *domain.RemoteCallError
	if errors.As(err, &remote) {
		attrs = append(attrs, "op", remote.Op)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		attrs = append(attrs, "aws_code", apiErr.ErrorCode())
	}
	return attrs
}
