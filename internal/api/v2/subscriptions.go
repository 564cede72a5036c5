package api

import (
	"net/http"

	"github.com/hashicorp-forge/distributor/internal/server"
	"github.com/hashicorp-forge/distributor/pkg/subscriptions"
)

// UpdateResponse reports whether a subscription update was applied.
type UpdateResponse struct {
	Updated bool `json:"updated"`
}

// ReceiveSubscriptionHandler registers an origin's subscription for a local
// copy.
func ReceiveSubscriptionHandler(srv server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := readJSON[subscriptions.ReceiveRequest](w, r)
		if !ok {
			return
		}
		if err := srv.Receiver.Receive(r.Context(), req); err != nil {
			srv.Logger.Warn("error receiving subscription",
				"error", err,
				"post_id", req.PostID,
			)
			writeSyndicationError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, struct{}{})
	}
}

// UpdateSubscriptionHandler applies an origin's update to a subscribed copy.
func UpdateSubscriptionHandler(srv server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := readJSON[subscriptions.UpdateRequest](w, r)
		if !ok {
			return
		}
		updated, err := srv.Receiver.Update(r.Context(), req)
		if err != nil {
			srv.Logger.Warn("error applying subscription update",
				"error", err,
				"post_id", req.PostID,
			)
			writeSyndicationError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, UpdateResponse{Updated: updated})
	}
}
