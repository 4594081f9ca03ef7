package server

import (
	"net/http"

	"opsboard/internal/api"
)

func (s *Server) handleRequestExtension(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := requirePathID(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	var req api.ExtensionCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.extensions.Request(r.Context(), principal, id, req)
	if err != nil {
		s.writeErrorReq(w, r, httpStatusFromError(err), err)
		return
	}

	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDecideExtension(w http.ResponseWriter, r *http.Request) {
	principal, ok := s.principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	id, err := requirePathID(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	var req api.ExtensionDecisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.extensions.Decide(r.Context(), principal, id, req)
	if err != nil {
		s.writeErrorReq(w, r, httpStatusFromError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetExtension(w http.ResponseWriter, r *http.Request) {
	id, err := requirePathID(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.extensions.Get(r.Context(), id)
	if err != nil {
		s.writeErrorReq(w, r, httpStatusFromError(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}
