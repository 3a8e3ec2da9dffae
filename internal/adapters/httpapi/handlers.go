package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"zklogin-salt/go-backend/internal/idtoken"
	"zklogin-salt/go-backend/internal/metrics"
	"zklogin-salt/go-backend/internal/saltderive"
)

type saltRequest struct {
	Iss      string `json:"iss"`
	Aud      string `json:"aud"`
	Sub      string `json:"sub"`
	JWTToken string `json:"jwtToken"`
}

type saltResponse struct {
	UserSalt string `json:"user_salt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSalt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	claims, err := decodeSaltRequest(w, r)
	if err != nil {
		s.metrics.RecordSalt(metrics.ResultInvalidInput)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	salt, err := s.deriver.Derive(claims)
	if err != nil {
		s.writeSaltError(w, err)
		return
	}
	s.metrics.RecordSalt(metrics.ResultOK)
	s.logger.Debug("salt derived",
		"component", "httpapi",
		"operation", "salt",
		"iss", claims.Issuer,
		"aud", claims.Audience,
		"sub", claims.Subject,
	)
	writeJSON(w, http.StatusOK, saltResponse{UserSalt: salt.Hex()})
}

func (s *Server) writeSaltError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, saltderive.ErrEncoding):
		s.metrics.RecordSalt(metrics.ResultInvalidInput)
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, saltderive.ErrConfiguration):
		s.metrics.RecordSalt(metrics.ResultConfiguration)
		s.logger.Error("salt derivation misconfigured", "component", "httpapi", "operation", "salt", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "salt service is misconfigured")
	default:
		s.metrics.RecordSalt(metrics.ResultInternal)
		s.logger.Error("salt derivation failed", "component", "httpapi", "operation", "salt", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "salt derivation failed")
	}
}

func decodeSaltRequest(w http.ResponseWriter, r *http.Request) (saltderive.Claims, error) {
	var req saltRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return saltderive.Claims{}, errors.New("request body too large")
		}
		return saltderive.Claims{}, errors.New("invalid JSON body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return saltderive.Claims{}, errors.New("request body must hold a single JSON object")
	}

	if req.JWTToken != "" {
		if req.Iss != "" || req.Aud != "" || req.Sub != "" {
			return saltderive.Claims{}, errors.New("send either jwtToken or iss/aud/sub, not both")
		}
		return idtoken.ExtractClaims(req.JWTToken)
	}
	return saltderive.Claims{Issuer: req.Iss, Audience: req.Aud, Subject: req.Sub}, nil
}

func (s *Server) handleNonce(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	resp, material, err := s.issuer.Issue()
	if err != nil {
		s.metrics.RecordNonce(metrics.ResultInternal)
		s.logger.Error("nonce issuance failed", "component", "httpapi", "operation", "nonce", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "nonce issuance failed")
		return
	}
	s.metrics.RecordNonce(metrics.ResultOK)
	s.logger.Debug("nonce issued",
		"component", "httpapi",
		"operation", "nonce",
		"max_epoch", material.MaxEpoch,
		"jwt_randomness", material.JWTRandomness,
	)
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
