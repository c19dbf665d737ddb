package controller

import (
	"encoding/json"
	"net/http"
	"strings"

	"tawarin-backend/model"
	"tawarin-backend/usecase"
)

type ChatController struct {
	usecase *usecase.NegotiationUsecase
}

func NewChatController(uc *usecase.NegotiationUsecase) *ChatController {
	return &ChatController{usecase: uc}
}

type chatRequest struct {
	BuyerID   string `json:"buyer_id"`
	ProductID string `json:"product_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Reply      string `json:"reply"`
	IsDeal     bool   `json:"isDeal"`
	SessionID  string `json:"session_id"`
	FinalPrice int    `json:"final_price,omitempty"`
}

// HandleChat serves POST /chat: one negotiation exchange.
func (c *ChatController) HandleChat(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	result, err := c.usecase.Exchange(r.Context(), req.BuyerID, req.ProductID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := chatResponse{
		Reply:     result.Reply,
		IsDeal:    result.Accepted,
		SessionID: result.Session.ID,
	}
	if result.Agreement != nil {
		resp.FinalPrice = result.Agreement.FinalPrice
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleHistory serves GET /chat/history?buyer_id=&product_id=.
func (c *ChatController) HandleHistory(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	turns, err := c.usecase.History(r.Context(), r.URL.Query().Get("buyer_id"), r.URL.Query().Get("product_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if turns == nil {
		turns = []model.Turn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

// HandleAbandon serves POST /chat/abandon: close the open session without a deal.
func (c *ChatController) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := c.usecase.Abandon(r.Context(), req.BuyerID, req.ProductID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleAgreement serves GET /agreements/{session_id} for the checkout
// collaborator.
func (c *ChatController) HandleAgreement(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// path: /agreements/{session_id}
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 3 || parts[len(parts)-1] == "" {
		http.Error(w, "Invalid URL", http.StatusBadRequest)
		return
	}
	sessionID := parts[len(parts)-1]

	agreement, err := c.usecase.Agreement(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agreement)
}
