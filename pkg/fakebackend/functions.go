package fakebackend

import (
	"fmt"
	"net/http"
	"time"
)

// Error codes of the create-payment-intent function, in validation order
const (
	CodeInvalidAmount   = "INVALID_AMOUNT"
	CodeMissingStations = "MISSING_STATIONS"
	CodeInvalidRoute    = "INVALID_ROUTE"
	CodeNoPassengers    = "NO_PASSENGERS"
)

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}

func (s *Server) preflight(w http.ResponseWriter, _ *http.Request) {
	setCORS(w)
	w.WriteHeader(http.StatusOK)
}

// functionError is the body the function returns for every failure, always with status 500
func functionError(w http.ResponseWriter, code, message string) {
	setCORS(w)
	writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{"code": code, "message": message},
	})
}

func present(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case float64:
		return t != 0
	case bool:
		return t
	default:
		return true
	}
}

func totalPassengers(v interface{}) float64 {
	counts, ok := v.(map[string]interface{})
	if !ok {
		return 0
	}
	var total float64
	for _, c := range counts {
		if n, ok := c.(float64); ok {
			total += n
		}
	}
	return total
}

// createPaymentIntent always answers in demo mode
func (s *Server) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		functionError(w, "ERROR", fmt.Sprintf("invalid request body: %v", err))
		return
	}

	amount, _ := body["amount"].(float64)
	if amount <= 0 {
		functionError(w, CodeInvalidAmount, "Amount must be positive")
		return
	}
	from, to := body["fromStationId"], body["toStationId"]
	if !present(from) || !present(to) {
		functionError(w, CodeMissingStations, "Stations required")
		return
	}
	if fmt.Sprint(from) == fmt.Sprint(to) {
		functionError(w, CodeInvalidRoute, "Same station")
		return
	}
	if totalPassengers(body["passengers"]) <= 0 {
		functionError(w, CodeNoPassengers, "At least 1 passenger required")
		return
	}

	intentID := fmt.Sprintf("pi_demo_%d", time.Now().UnixMilli())
	setCORS(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"clientSecret":    intentID + "_secret",
			"paymentIntentId": intentID,
			"amount":          amount,
			"isDemoMode":      true,
		},
	})
}
