package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/tenantgate/tenantgate/internal/gateway"
)

// echoResponse reports the routing decision back to the caller. It stands in
// for the real backend: in production the request would be forwarded to an
// ingress that routes on the customer header to the correct namespace.
type echoResponse struct {
	Message string      `json:"message"`
	Routing routingInfo `json:"routing"`
	Request requestInfo `json:"request"`
}

type routingInfo struct {
	CustomerID      string `json:"customerId"`
	CustomerName    string `json:"customerName"`
	TargetNamespace string `json:"targetNamespace"`
	TargetService   string `json:"targetService"`
}

type requestInfo struct {
	Path     string `json:"path"`
	Method   string `json:"method"`
	SourceIP string `json:"sourceIp"`
}

// handleEcho simulates the upstream service. The customer headers it reads
// were set by the gateway middleware from the verified token, never by the
// caller.
func handleEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customerID := r.Header.Get(gateway.HeaderCustomerID)
		customerName := r.Header.Get(gateway.HeaderCustomerName)

		response := echoResponse{
			Message: "request successfully routed",
			Routing: routingInfo{
				CustomerID:      customerID,
				CustomerName:    customerName,
				TargetNamespace: fmt.Sprintf("cust-%s", customerID),
				TargetService:   fmt.Sprintf("%s-service.cust-%s.svc.cluster.local", customerID, customerID),
			},
			Request: requestInfo{
				Path:     r.URL.Path,
				Method:   r.Method,
				SourceIP: r.RemoteAddr,
			},
		}

		marshalledResponse, err := json.Marshal(response)
		if err != nil {
			requestError(w, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		// echo the routed customer back for verification
		w.Header().Set(gateway.HeaderCustomerID, customerID)

		_, err = w.Write(marshalledResponse)
		if err != nil {
			// record failure to log: trying to respond to the client at this
			// point will likely fail
			log.Info().Msgf("failed to write response: %v\n", err)
			return
		}
	})
}

func handleHealthCheck() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
}

// maxRequestSize limits the size of the request body to the given number of
// bytes. Exceeding the limit fails the body read in the downstream handler.
func maxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

func requestError(w http.ResponseWriter, statusCode int) {
	http.Error(w, http.StatusText(statusCode), statusCode)
}
